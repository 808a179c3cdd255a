package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Total computes a line total: price*quantity less the discount, rounded to
// two places half away from zero. Each line is rounded independently before
// invoice summation.
func Total(price, quantity, discountValue decimal.Decimal, discountType DiscountType) decimal.Decimal {
	gross := price.Mul(quantity)

	var net decimal.Decimal
	switch discountType {
	case DiscountAbsolute:
		net = gross.Sub(discountValue)
	default:
		net = gross.Mul(decimal.NewFromInt(1).Sub(discountValue.Div(oneHundred)))
	}
	return net.Round(2)
}

// Total returns the item's monetary total.
func (li LineItem) Total() decimal.Decimal {
	return Total(li.Price, li.Quantity, li.DiscountValue, li.DiscountType)
}

// TotalDisplay renders the total with two decimals.
func (li LineItem) TotalDisplay() string {
	return li.Total().StringFixed(2)
}

// PriceDisplay renders the unit price with two decimals.
func (li LineItem) PriceDisplay() string {
	return li.Price.StringFixed(2)
}

// DiscountDisplay renders the discount for documents. Zero discounts render
// empty regardless of type.
func DiscountDisplay(discountValue decimal.Decimal, discountType DiscountType) string {
	if discountValue.IsZero() {
		return ""
	}
	if discountType == DiscountAbsolute {
		return "-" + discountValue.StringFixed(2)
	}
	return discountValue.Mul(oneHundred).StringFixed(2) + "%"
}

func (li LineItem) DiscountDisplay() string {
	return DiscountDisplay(li.DiscountValue, li.DiscountType)
}

// QuantityDisplay renders integral quantities without a decimal point and
// fractional quantities with up to two decimals, trailing zeros trimmed.
func QuantityDisplay(quantity decimal.Decimal) string {
	if quantity.Equal(quantity.Truncate(0)) {
		return quantity.Truncate(0).String()
	}
	s := quantity.StringFixed(2)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func (li LineItem) QuantityDisplay() string {
	return QuantityDisplay(li.Quantity)
}

// Title derives the document title for the item's kind.
func (li LineItem) Title(productName, workTypeName string) string {
	switch li.Kind {
	case KindProduct:
		return productName
	case KindSubscription:
		return fmt.Sprintf("%s - %s", productName, li.CommentTitle)
	case KindWork:
		return fmt.Sprintf("%s (%s)", workTypeName, li.CommentTitle)
	case KindVehicleExpense:
		return fmt.Sprintf("Kilometerspesen (%s)", li.CommentTitle)
	default:
		return li.CommentTitle
	}
}
