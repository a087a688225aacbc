package export

import (
	"io"

	"emarket/internal/usecase"

	"github.com/tealeg/xlsx"
)

const (
	SheetName   = "Orders"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var orderHeaders = []string{
	"OrderID", "CreatedAt", "Status", "BuyerName", "BuyerEmail",
	"ProductID", "ProductName", "Quantity", "UnitPrice", "Subtotal",
	"ShipTo", "City", "Pincode",
}

// 出品者の注文を 1明細 = 1行 で書き出す（他の出品者の明細は出さない）
func WriteSellerOrders(w io.Writer, sellerID int64, orders []usecase.OrderOutput) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		var buyerName, buyerEmail string
		if o.Buyer != nil {
			buyerName, buyerEmail = o.Buyer.Name, o.Buyer.Email
		}

		for _, it := range o.Items {
			if it.SellerID != sellerID {
				continue
			}
			row := sheet.AddRow()
			row.AddCell().SetValue(o.ID)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(o.Status)
			row.AddCell().SetValue(buyerName)
			row.AddCell().SetValue(buyerEmail)
			row.AddCell().SetValue(it.ProductID)
			row.AddCell().SetValue(it.Name)
			row.AddCell().SetValue(it.Quantity)
			row.AddCell().SetString(it.Price.StringFixed(2))
			row.AddCell().SetString(it.Subtotal.StringFixed(2))
			row.AddCell().SetValue(o.ShippingAddress.FullName)
			row.AddCell().SetValue(o.ShippingAddress.City)
			row.AddCell().SetValue(o.ShippingAddress.Pincode)
		}
	}

	return file.Write(w)
}
