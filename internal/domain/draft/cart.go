package draft

import (
	"posdesk/internal/core/apperror"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

// Cart operations read the current draft and return the Patch that performs
// the change. They never modify d; the session store applies the patch.

func saleBody(d Draft) (*SaleBody, error) {
	if d.Sale == nil {
		return nil, apperror.NewValidation("cart is only available on sale drafts").
			WithDetail("draft_id", d.ID)
	}
	return d.Sale, nil
}

func lineNotFound(variantID int64) error {
	return apperror.NewNotFound("cart line", variantID)
}

// AddVariant adds one unit of v. If the variant is already in the cart its
// quantity is incremented. stock is the quantity on hand for the draft's warehouse.
func AddVariant(d Draft, v sales.Variant, stock int) (Patch, error) {
	s, err := saleBody(d)
	if err != nil {
		return Patch{}, err
	}
	cart := append([]CartLine(nil), s.Cart...)
	if i := s.LineIndex(v.ID); i >= 0 {
		line := cart[i]
		if line.Quantity+1 > line.MaxQuantity {
			return Patch{}, apperror.NewInsufficientStock(v.ID, line.Quantity+1, line.MaxQuantity)
		}
		line.Quantity++
		cart[i] = line
		return Patch{Cart: Value(cart)}, nil
	}
	if stock < 1 {
		return Patch{}, apperror.NewInsufficientStock(v.ID, 1, stock)
	}
	cart = append(cart, CartLine{
		VariantID:   v.ID,
		ProductID:   v.ProductID,
		ProductName: v.ProductName,
		Price:       v.Price,
		CostPrice:   v.CostPrice,
		Quantity:    1,
		Variant:     NewVariantLabel(v.Size, v.Color),
		Discount:    types.Zero(),
		MaxQuantity: stock,
	})
	return Patch{Cart: Value(cart)}, nil
}

// SetQuantity sets the quantity of a line. Values above MaxQuantity or below 1
// are rejected, not clamped.
func SetQuantity(d Draft, variantID int64, qty int) (Patch, error) {
	return updateLine(d, variantID, func(l *CartLine) error {
		if qty < 1 {
			return apperror.NewValidation("quantity must be at least 1").
				WithDetail("variant_id", variantID)
		}
		if qty > l.MaxQuantity {
			return apperror.NewInsufficientStock(variantID, qty, l.MaxQuantity)
		}
		l.Quantity = qty
		return nil
	})
}

// SetLineDiscount sets the per-unit discount of a line.
func SetLineDiscount(d Draft, variantID int64, discount types.Money) (Patch, error) {
	return updateLine(d, variantID, func(l *CartLine) error {
		if discount.IsNegative() {
			return apperror.NewValidation("discount cannot be negative").
				WithDetail("variant_id", variantID)
		}
		if discount.GreaterThan(l.Price) {
			return apperror.NewValidation("discount cannot exceed the unit price").
				WithDetail("variant_id", variantID)
		}
		l.Discount = discount
		return nil
	})
}

// SetLinePrice overrides the unit price of a line.
func SetLinePrice(d Draft, variantID int64, price types.Money) (Patch, error) {
	return updateLine(d, variantID, func(l *CartLine) error {
		if price.IsNegative() {
			return apperror.NewValidation("price cannot be negative").
				WithDetail("variant_id", variantID)
		}
		l.Price = price
		if l.Discount.GreaterThan(price) {
			l.Discount = price
		}
		return nil
	})
}

// RemoveLine drops a line from the cart.
func RemoveLine(d Draft, variantID int64) (Patch, error) {
	s, err := saleBody(d)
	if err != nil {
		return Patch{}, err
	}
	i := s.LineIndex(variantID)
	if i < 0 {
		return Patch{}, lineNotFound(variantID)
	}
	cart := make([]CartLine, 0, len(s.Cart)-1)
	cart = append(cart, s.Cart[:i]...)
	cart = append(cart, s.Cart[i+1:]...)
	return Patch{Cart: Value(cart)}, nil
}

// ClearCart empties the cart and resets the bill-level inputs.
func ClearCart(d Draft) (Patch, error) {
	if _, err := saleBody(d); err != nil {
		return Patch{}, err
	}
	return Patch{
		Cart:       Value([]CartLine{}),
		Discount:   Value(""),
		PaidAmount: Value(""),
	}, nil
}

func updateLine(d Draft, variantID int64, fn func(*CartLine) error) (Patch, error) {
	s, err := saleBody(d)
	if err != nil {
		return Patch{}, err
	}
	i := s.LineIndex(variantID)
	if i < 0 {
		return Patch{}, lineNotFound(variantID)
	}
	cart := append([]CartLine(nil), s.Cart...)
	line := cart[i]
	if err := fn(&line); err != nil {
		return Patch{}, err
	}
	cart[i] = line
	return Patch{Cart: Value(cart)}, nil
}

// Restock recomputes MaxQuantity of every line against stock in warehouseID.
// Quantities are left as they are; Validate rejects lines that no longer fit.
func Restock(cart []CartLine, warehouseID *int64, stock StockFunc) []CartLine {
	out := make([]CartLine, len(cart))
	for i, l := range cart {
		l.MaxQuantity = max(stock(l.VariantID, warehouseID)+l.Sold, 0)
		out[i] = l
	}
	return out
}

// CheckStock verifies every line of a sale draft against stock in the draft's
// warehouse. Units sold on the reopened sale count as available.
func CheckStock(d Draft, stock StockFunc) error {
	if d.Sale == nil || stock == nil {
		return nil
	}
	for _, l := range d.Sale.Cart {
		available := stock(l.VariantID, d.Sale.WarehouseID) + l.Sold
		if l.Quantity > available {
			return apperror.NewInsufficientStock(l.VariantID, l.Quantity, max(available, 0))
		}
	}
	return nil
}
