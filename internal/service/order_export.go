package service

import (
	"io"
	"strconv"
	"strings"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/tealeg/xlsx"
)

var orderExportHeaders = []string{
	"주문번호", "주문일시", "상태", "주문자", "이메일", "연락처", "입금자명",
	"상품", "상품금액", "배송비", "결제금액",
	"수령인", "수령인 연락처", "우편번호", "주소", "상세주소", "배송메모", "관리자 메모",
}

// OrderExporter writes orders as a spreadsheet for bank-transfer
// reconciliation and courier label printing.
type OrderExporter interface {
	WriteXLSX(w io.Writer, status model.OrderStatus) (int, error)
}

type orderExporter struct {
	store repository.Store
}

func NewOrderExporter(store repository.Store) OrderExporter {
	return &orderExporter{store: store}
}

// WriteXLSX writes every order with the given status (all orders when empty),
// newest first, and returns how many rows were written.
func (e *orderExporter) WriteXLSX(w io.Writer, status model.OrderStatus) (int, error) {
	if status != "" && !status.IsValid() {
		return 0, ErrInvalidStatus
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return 0, err
	}

	headerRow := sheet.AddRow()
	for _, h := range orderExportHeaders {
		headerRow.AddCell().SetString(h)
	}

	count := 0
	page := repository.Page{Page: 1, Limit: 100}
	for {
		orders, total, err := e.store.Orders().FindAll(repository.OrderFilter{Status: status, Page: page})
		if err != nil {
			return 0, err
		}
		for i := range orders {
			writeOrderRow(sheet.AddRow(), &orders[i])
			count++
		}
		if len(orders) == 0 || int64(page.Page*page.Limit) >= total {
			break
		}
		page.Page++
	}

	if err := file.Write(w); err != nil {
		return 0, err
	}
	return count, nil
}

func writeOrderRow(row *xlsx.Row, o *model.Order) {
	products := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		products = append(products, item.ProductName+" x"+strconv.Itoa(item.Quantity))
	}

	row.AddCell().SetString(o.OrderNumber)
	row.AddCell().SetString(o.CreatedAt.In(kst).Format("2006-01-02 15:04"))
	row.AddCell().SetString(string(o.Status))
	row.AddCell().SetString(o.BuyerName)
	row.AddCell().SetString(o.BuyerEmail)
	row.AddCell().SetString(o.BuyerPhone)
	row.AddCell().SetString(o.DepositorName)
	row.AddCell().SetString(strings.Join(products, ", "))
	row.AddCell().SetInt64(o.Subtotal)
	row.AddCell().SetInt64(o.ShippingFee)
	row.AddCell().SetInt64(o.TotalPrice)
	for _, v := range []*string{
		o.ShippingRecipient, o.ShippingPhone, o.ShippingPostalCode,
		o.ShippingAddress, o.ShippingAddressDetail, o.ShippingMemo,
	} {
		row.AddCell().SetString(deref(v))
	}
	row.AddCell().SetString(o.AdminMemo)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
