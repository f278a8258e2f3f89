package handlers

import (
	"github.com/gin-gonic/gin"

	"posdesk/internal/core/apperror"
	"posdesk/internal/core/types"
	"posdesk/internal/domain/draft"
	"posdesk/internal/domain/money"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/http/v1/dto"
)

// Catalog resolves products and customers for the cart screens.
type Catalog interface {
	Variant(variantID int64) (sales.Variant, bool)
	VariantByBarcode(barcode string) (sales.Variant, bool)
	Customer(customerID int64) (*sales.Customer, bool)
	Stock(variantID int64, warehouseID *int64) int
}

// DraftHandler serves the tab strip and the cart of the active tab.
type DraftHandler struct {
	*BaseHandler
	store   *session.Store
	catalog Catalog
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(base *BaseHandler, store *session.Store, catalog Catalog) *DraftHandler {
	return &DraftHandler{
		BaseHandler: base,
		store:       store,
		catalog:     catalog,
	}
}

// List handles GET /drafts.
func (h *DraftHandler) List(c *gin.Context) {
	h.OK(c, dto.FromSnapshot(h.store.Snapshot()))
}

// Create handles POST /drafts - opens a new tab and makes it active.
func (h *DraftHandler) Create(c *gin.Context) {
	var req dto.AddTabRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	var opts []draft.FreshOption
	if req.WarehouseID != nil {
		opts = append(opts, draft.FreshWarehouse(req.WarehouseID))
	}
	if req.SaleType != "" {
		if !req.SaleType.Valid() {
			h.Error(c, apperror.NewValidation("invalid sale type").WithDetail("saleType", req.SaleType))
			return
		}
		opts = append(opts, draft.FreshSaleType(req.SaleType))
	}
	if req.CustomerID != nil {
		customer, ok := h.catalog.Customer(*req.CustomerID)
		if !ok {
			h.Error(c, apperror.NewNotFound("customer", *req.CustomerID))
			return
		}
		opts = append(opts, draft.FreshCustomer(customer))
	}

	d := h.store.AddTab(c.Request.Context(), opts...)
	h.Created(c, dto.NewDraftResponse(d))
}

// Close handles DELETE /drafts/:id. Closing the only tab is a no-op.
func (h *DraftHandler) Close(c *gin.Context) {
	closed, err := h.store.CloseTab(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CloseTabResponse{Closed: closed, ActiveID: h.store.ActiveID()})
}

// Activate handles PUT /drafts/:id/activate.
func (h *DraftHandler) Activate(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.SetActive(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	d, _ := h.store.Get(id)
	h.OK(c, dto.NewDraftResponse(d))
}

// Active handles GET /drafts/active.
func (h *DraftHandler) Active(c *gin.Context) {
	h.OK(c, dto.NewDraftResponse(h.store.Active()))
}

// Patch handles PATCH /drafts/active. Keys absent from the body are left
// untouched; an explicit null clears the field. A warehouse change re-bounds
// the cart against that warehouse's stock and is refused if a line no longer fits.
func (h *DraftHandler) Patch(c *gin.Context) {
	var p draft.Patch
	if !h.BindJSON(c, &p) {
		return
	}
	d, err := h.store.UpdateActive(c.Request.Context(), func(cur draft.Draft) (draft.Patch, error) {
		if p.WarehouseID.Set && cur.Sale != nil {
			p.Cart = draft.Value(draft.Restock(cur.Sale.Cart, p.WarehouseID.Value, h.catalog.Stock))
		}
		return p, nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDraftResponse(d))
}

// Totals handles GET /drafts/active/totals.
func (h *DraftHandler) Totals(c *gin.Context) {
	h.OK(c, money.Compute(h.store.Active()))
}

// AddLine handles POST /drafts/active/lines.
func (h *DraftHandler) AddLine(c *gin.Context) {
	var req dto.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var (
		v  sales.Variant
		ok bool
	)
	switch {
	case req.VariantID > 0:
		v, ok = h.catalog.Variant(req.VariantID)
		if !ok {
			h.Error(c, apperror.NewNotFound("variant", req.VariantID))
			return
		}
	case req.Barcode != "":
		v, ok = h.catalog.VariantByBarcode(req.Barcode)
		if !ok {
			h.Error(c, apperror.NewNotFound("variant", req.Barcode).WithDetail("barcode", req.Barcode))
			return
		}
	default:
		h.Error(c, apperror.NewValidation("variantId or barcode is required"))
		return
	}

	d, err := h.store.UpdateActive(c.Request.Context(), func(cur draft.Draft) (draft.Patch, error) {
		var warehouseID *int64
		if cur.Sale != nil {
			warehouseID = cur.Sale.WarehouseID
		}
		return draft.AddVariant(cur, v, h.catalog.Stock(v.ID, warehouseID))
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDraftResponse(d))
}

// UpdateLine handles PUT /drafts/active/lines/:variantId. Price is applied
// before discount so a discount is checked against the new price.
func (h *DraftHandler) UpdateLine(c *gin.Context) {
	variantID, ok := h.ParseInt64Param(c, "variantId")
	if !ok {
		return
	}
	var req dto.UpdateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var steps []func(draft.Draft) (draft.Patch, error)
	if req.Price != nil {
		price, err := types.ParseAmountStrict(*req.Price)
		if err != nil {
			h.Error(c, apperror.NewInvalidAmount("price").WithCause(err))
			return
		}
		steps = append(steps, func(d draft.Draft) (draft.Patch, error) {
			return draft.SetLinePrice(d, variantID, price)
		})
	}
	if req.Discount != nil {
		discount, err := types.ParseAmountStrict(*req.Discount)
		if err != nil {
			h.Error(c, apperror.NewInvalidAmount("discount").WithCause(err))
			return
		}
		steps = append(steps, func(d draft.Draft) (draft.Patch, error) {
			return draft.SetLineDiscount(d, variantID, discount)
		})
	}
	if req.Quantity != nil {
		qty := *req.Quantity
		steps = append(steps, func(d draft.Draft) (draft.Patch, error) {
			return draft.SetQuantity(d, variantID, qty)
		})
	}
	if len(steps) == 0 {
		h.Error(c, apperror.NewValidation("nothing to update"))
		return
	}

	d, err := h.store.UpdateActive(c.Request.Context(), chain(steps))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDraftResponse(d))
}

// RemoveLine handles DELETE /drafts/active/lines/:variantId.
func (h *DraftHandler) RemoveLine(c *gin.Context) {
	variantID, ok := h.ParseInt64Param(c, "variantId")
	if !ok {
		return
	}
	d, err := h.store.UpdateActive(c.Request.Context(), func(cur draft.Draft) (draft.Patch, error) {
		return draft.RemoveLine(cur, variantID)
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDraftResponse(d))
}

// ClearLines handles DELETE /drafts/active/lines.
func (h *DraftHandler) ClearLines(c *gin.Context) {
	d, err := h.store.UpdateActive(c.Request.Context(), draft.ClearCart)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDraftResponse(d))
}

// chain folds several cart edits into one patch so they land atomically.
func chain(steps []func(draft.Draft) (draft.Patch, error)) func(draft.Draft) (draft.Patch, error) {
	return func(d draft.Draft) (draft.Patch, error) {
		var out draft.Patch
		cur := d
		for _, step := range steps {
			p, err := step(cur)
			if err != nil {
				return draft.Patch{}, err
			}
			if cur, err = draft.Apply(cur, p); err != nil {
				return draft.Patch{}, err
			}
			out = p
		}
		return out, nil
	}
}
