package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	bill  *entity.Bill
	items []*entity.BillItem
}

func (g *fakeGenerator) GenerateBillReceipt(_ context.Context, bill *entity.Bill, items []*entity.BillItem) ([]byte, error) {
	g.bill = bill
	g.items = items
	return []byte("%PDF-fake"), nil
}

func TestDownloadReceipt_SoloLineasActivas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(2, 3))
	require.NoError(t, err)
	require.NoError(t, f.uc.DeactivateLineItem(ctx, f.actor, res.Items[0].ID))

	gen := &fakeGenerator{}
	uc := billing.NewReceiptUseCase(f.store.Bills(), gen)

	pdf, filename, err := uc.DownloadReceipt(ctx, f.actor, res.BillID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(pdf))
	assert.Equal(t, "venta-"+res.BillID+".pdf", filename)
	assert.Equal(t, res.BillID, gen.bill.ID)
	require.Len(t, gen.items, 1)
	assert.Equal(t, f.cachama, gen.items[0].VariantID)
}

func TestDownloadReceipt_OtraOrganizacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(1, 1))
	require.NoError(t, err)

	uc := billing.NewReceiptUseCase(f.store.Bills(), &fakeGenerator{})
	other := f.actor
	other.OrganizationID = uuid.NewString()

	_, _, err = uc.DownloadReceipt(ctx, other, res.BillID)
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, _, err = uc.DownloadReceipt(ctx, f.actor, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}
