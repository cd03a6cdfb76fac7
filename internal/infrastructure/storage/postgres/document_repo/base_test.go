package document_repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain"
	"stockerp/internal/domain/documents"
	"stockerp/internal/infrastructure/storage/postgres"
)

func TestColumns(t *testing.T) {
	assert.Equal(t, "document_id", lineColumns[0])
	assert.Contains(t, lineColumns, "line_no")
	assert.Contains(t, lineColumns, "counted_qty")

	assert.NotContains(t, headerColumns, "lines")
	assert.Contains(t, headerColumns, "number_fallback")

	assert.Equal(t, "compression_algo", auditColumns[len(auditColumns)-1])
	assert.Contains(t, auditColumns, "snapshot")
}

func TestLineRowValues(t *testing.T) {
	docID := id.New()
	counted := types.Qty(7)
	row := lineRow{DocumentID: docID, Line: documents.Line{LineNo: 2, Quantity: types.Qty(3), CountedQty: &counted}}

	values := postgres.Values(postgres.ColumnMap(row), lineColumns)
	require.Len(t, values, len(lineColumns))
	assert.Equal(t, docID, values[0])
	assert.Equal(t, 2, values[1])
}

func TestListQuery(t *testing.T) {
	repo := NewDocumentRepo(nil, nil)
	wh := id.New()

	sql, args, err := repo.listQuery(documents.Filter{
		ListFilter:  domain.ListFilter{Search: "PO-"},
		Types:       []documents.DocType{documents.TypePurchaseOrder, documents.TypeSalesOrder},
		Status:      documents.StatusApproved,
		WarehouseID: &wh,
	}).ToSql()
	require.NoError(t, err)

	_, where, ok := strings.Cut(sql, " WHERE ")
	require.True(t, ok)
	assert.Equal(t, "doc_type IN ($1,$2) AND status = $3 AND warehouse_id = $4 AND number ILIKE $5", where)
	want := []any{documents.TypePurchaseOrder, documents.TypeSalesOrder, documents.StatusApproved, wh, "%PO-%"}
	require.Len(t, args, len(want))
	for i := range want {
		assert.Equal(t, fmt.Sprint(want[i]), fmt.Sprint(args[i]))
	}
}
