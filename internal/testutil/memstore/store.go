// Package memstore implementa los puertos de repositorio en memoria para pruebas de casos de uso.
// Las transacciones se serializan y un error dentro de la función restaura el estado previo.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type state struct {
	movements map[string]entity.MovementRecord
	stocks    map[string]entity.StockBalance // por StockKey.String()
	bills     map[string]entity.Bill
	items     map[string]entity.BillItem
}

func (s state) clone() state {
	c := state{
		movements: make(map[string]entity.MovementRecord, len(s.movements)),
		stocks:    make(map[string]entity.StockBalance, len(s.stocks)),
		bills:     make(map[string]entity.Bill, len(s.bills)),
		items:     make(map[string]entity.BillItem, len(s.items)),
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

// Store estado compartido por los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data state

	places    map[string]string // id -> organización
	variants  map[string]directoryEntry
	users     map[string]string
	discounts map[string]string

	applyDeltaCalls int
	failDeltaAt     int
	failDeltaErr    error
	failItemsErr    error

	now func() time.Time
}

type directoryEntry struct {
	org  string
	name string
}

// New construye un Store vacío.
func New() *Store {
	return &Store{
		data:      state{}.clone(),
		places:    map[string]string{},
		variants:  map[string]directoryEntry{},
		users:     map[string]string{},
		discounts: map[string]string{},
		now:       time.Now,
	}
}

// AddPlace registra un lugar activo de la organización.
func (s *Store) AddPlace(org, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[id] = org
}

// AddVariant registra una variante activa; name se usa para ordenar líneas por variant_name.
func (s *Store) AddVariant(org, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[id] = directoryEntry{org: org, name: name}
}

// AddUser registra un usuario activo.
func (s *Store) AddUser(org, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = org
}

// AddDiscount registra un descuento activo.
func (s *Store) AddDiscount(org, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discounts[id] = org
}

// FailApplyDelta hace que la n-ésima llamada a ApplyDelta (contando desde ahora, base 1) devuelva err.
func (s *Store) FailApplyDelta(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDeltaCalls = 0
	s.failDeltaAt = n
	s.failDeltaErr = err
}

// FailCreateItems hace que toda inserción de líneas devuelva err (nil lo desactiva).
func (s *Store) FailCreateItems(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failItemsErr = err
}

// Movements repositorio de movimientos sobre el Store.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Stocks repositorio de saldos sobre el Store.
func (s *Store) Stocks() repository.StockRepository { return &stockRepo{s: s} }

// Bills repositorio de facturas sobre el Store.
func (s *Store) Bills() repository.BillRepository { return &billRepo{s: s} }

// References directorio de referencias sobre el Store.
func (s *Store) References() repository.ReferenceRepository { return &referenceRepo{s: s} }

// TxRunner runner de transacciones sobre el Store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// Balance devuelve la cantidad de la llave (cero si no hay fila) y si la fila existe.
func (s *Store) Balance(key entity.StockKey) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.data.stocks[key.String()]
	if !ok {
		return decimal.Zero, false
	}
	return row.Quantity, true
}

// Counts número de registros, saldos, facturas y líneas almacenados.
func (s *Store) Counts() (movements, stocks, bills, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.movements), len(s.data.stocks), len(s.data.bills), len(s.data.items)
}

// TxRunner serializa las transacciones y restaura el estado si la función devuelve error.
type TxRunner struct {
	s *Store
}

var (
	_ inventory.TxRunner      = (*TxRunner)(nil)
	_ billing.BillingTxRunner = (*TxRunner)(nil)
)

// Run ejecuta fn con los repositorios de movimientos y saldos.
func (r *TxRunner) Run(ctx context.Context, fn func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error) error {
	return r.inTx(ctx, func() error {
		return fn(&movementRepo{s: r.s, tx: true}, &stockRepo{s: r.s, tx: true})
	})
}

// RunBilling ejecuta fn con los repositorios de saldos y facturas.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(stockRepo repository.StockRepository, billRepo repository.BillRepository) error) error {
	return r.inTx(ctx, func() error {
		return fn(&stockRepo{s: r.s, tx: true}, &billRepo{s: r.s, tx: true})
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	snapshot := r.s.data.clone()
	r.s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			r.s.restore(snapshot)
		}
	}()
	return fn()
}

// autocommit toma txMu para una escritura fuera de transacción; un rollback
// concurrente no puede borrarla. Dentro de inTx no hace nada.
func (s *Store) autocommit(inTx bool) (unlock func()) {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snapshot
}
