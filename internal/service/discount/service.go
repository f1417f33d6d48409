package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tillpoint/internal/domain"
	discountrepo "tillpoint/internal/repository/discount"
	"tillpoint/internal/rules"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo      discountRepo
	products  productRepo
	customers customerRepo
	now       func() time.Time
}

type discountRepo interface {
	List(ctx context.Context) ([]domain.Discount, error)
	GetByID(ctx context.Context, id string) (*domain.Discount, error)
	Create(ctx context.Context, in discountrepo.CreateDiscountInput) (*domain.Discount, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementUsage(ctx context.Context, id string) (int, error)
	ResetUsage(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	CategoriesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

func New(repo discountrepo.Repository, products productRepo, customers customerRepo) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		customers: customers,
		now:       time.Now,
	}
}

// Evaluation is the outcome of checking one discount against one cart.
// Ineligibility is data, not an error: pricing screens stay crash-free and
// show Reason only on explicit discount entry.
type Evaluation struct {
	Valid       bool   `json:"isValid"`
	AmountCents int64  `json:"discountAmountCents"`
	Reason      string `json:"reason,omitempty"`
}

// BestResult is the outcome of picking the highest-value discount for a cart.
type BestResult struct {
	Found       bool             `json:"found"`
	Discount    *domain.Discount `json:"discount,omitempty"`
	AmountCents int64            `json:"discountAmountCents"`
}

// ApplicableQuery narrows the discount table for a branch and, optionally, a
// single product and a running subtotal.
type ApplicableQuery struct {
	BranchID      string
	ProductID     string
	SubtotalCents *int64
}

// ListApplicable runs the eligibility filter pipeline over the discount
// table: temporal, branch, scope, optional minimum purchase. The result is
// unordered; an unknown product yields an empty slice rather than an error.
func (s *Service) ListApplicable(ctx context.Context, q ApplicableQuery) ([]domain.Discount, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var prod *domain.Product
	if q.ProductID != "" {
		prod, err = s.products.GetByID(ctx, q.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
	}

	now := s.now()
	applicable := make([]domain.Discount, 0, len(all))
	for _, d := range all {
		if !d.CurrentAt(now) {
			continue
		}
		if !d.AppliesAtBranch(q.BranchID) {
			continue
		}
		if prod != nil && !scopeMatchesProduct(d, *prod) {
			continue
		}
		if q.SubtotalCents != nil && d.MinPurchaseCents != nil && *q.SubtotalCents < *d.MinPurchaseCents {
			continue
		}
		applicable = append(applicable, d)
	}
	return applicable, nil
}

// Evaluate validates one named discount against a cart and computes its
// amount.
func (s *Service) Evaluate(ctx context.Context, id string, cart domain.Cart) (Evaluation, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	categories, err := s.cartCategories(ctx, *d, cart)
	if err != nil {
		return Evaluation{}, err
	}
	cust, err := s.cartCustomer(ctx, []domain.Discount{*d}, cart)
	if err != nil {
		return Evaluation{}, err
	}
	return evaluate(*d, cart, categories, cust, s.now()), nil
}

// SelectBest evaluates every applicable rule for the branch and returns the
// one with the strictly greatest amount; the first maximum seen wins ties.
func (s *Service) SelectBest(ctx context.Context, branchID string, cart domain.Cart) (BestResult, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return BestResult{}, err
	}

	now := s.now()
	candidates := make([]domain.Discount, 0, len(all))
	for _, d := range all {
		if !d.CurrentAt(now) || !d.AppliesAtBranch(branchID) || d.UsageExhausted() {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return BestResult{}, nil
	}

	categories, err := s.cartCategoriesForAny(ctx, candidates, cart)
	if err != nil {
		return BestResult{}, err
	}
	cust, err := s.cartCustomer(ctx, candidates, cart)
	if err != nil {
		return BestResult{}, err
	}

	best := BestResult{}
	for i := range candidates {
		ev := evaluate(candidates[i], cart, categories, cust, now)
		if !ev.Valid || ev.AmountCents == 0 {
			continue
		}
		if ev.AmountCents > best.AmountCents {
			best = BestResult{Found: true, Discount: &candidates[i], AmountCents: ev.AmountCents}
		}
	}
	return best, nil
}

// Apply records one redemption. The increment is a conditional update at the
// store, so a capped discount cannot be over-redeemed by concurrent
// terminals.
func (s *Service) Apply(ctx context.Context, id string) (int, error) {
	return s.repo.IncrementUsage(ctx, id)
}

// ResetUsage is privileged; the transport layer enforces the admin role.
func (s *Service) ResetUsage(ctx context.Context, id string) error {
	return s.repo.ResetUsage(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Discount, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Discount, error) {
	return s.repo.GetByID(ctx, id)
}

type CreateInput struct {
	Name             string               `json:"name"`
	Type             domain.DiscountType  `json:"type"`
	Value            float64              `json:"value"`
	Scope            domain.DiscountScope `json:"scope"`
	CategoryIDs      []string             `json:"categoryIds,omitempty"`
	ProductIDs       []string             `json:"productIds,omitempty"`
	BranchIDs        []string             `json:"branchIds,omitempty"`
	StartAt          time.Time            `json:"startAt"`
	EndAt            time.Time            `json:"endAt"`
	IsActive         bool                 `json:"isActive"`
	UsageLimit       *int                 `json:"usageLimit,omitempty"`
	MinPurchaseCents *int64               `json:"minPurchaseCents,omitempty"`
	MaxDiscountCents *int64               `json:"maxDiscountCents,omitempty"`
	CustomerRule     *rules.Condition     `json:"customerRule,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Discount, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, discountrepo.CreateDiscountInput{
		Name:             strings.TrimSpace(in.Name),
		Type:             in.Type,
		Value:            in.Value,
		Scope:            in.Scope,
		CategoryIDs:      in.CategoryIDs,
		ProductIDs:       in.ProductIDs,
		BranchIDs:        in.BranchIDs,
		StartAt:          in.StartAt,
		EndAt:            in.EndAt,
		IsActive:         in.IsActive,
		UsageLimit:       in.UsageLimit,
		MinPurchaseCents: in.MinPurchaseCents,
		MaxDiscountCents: in.MaxDiscountCents,
		CustomerRule:     in.CustomerRule,
	})
}

type FlashSaleInput struct {
	Name             string               `json:"name,omitempty"`
	Percent          float64              `json:"percent"`
	DurationDays     int                  `json:"durationDays"`
	Scope            domain.DiscountScope `json:"scope,omitempty"`
	CategoryIDs      []string             `json:"categoryIds,omitempty"`
	ProductIDs       []string             `json:"productIds,omitempty"`
	BranchIDs        []string             `json:"branchIds,omitempty"`
	MaxDiscountCents *int64               `json:"maxDiscountCents,omitempty"`
}

// CreateFlashSale is the bulk-creation helper: it derives the name and the
// validity window from a duration in days starting now.
func (s *Service) CreateFlashSale(ctx context.Context, in FlashSaleInput) (*domain.Discount, error) {
	if in.Percent <= 0 || in.Percent > 100 {
		return nil, fmt.Errorf("%w: percent must be in (0, 100]", domain.ErrInvalid)
	}
	if in.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: durationDays must be positive", domain.ErrInvalid)
	}
	scope := in.Scope
	if scope == "" {
		scope = domain.ScopeAllProducts
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("Flash Sale %.0f%% (%dd)", in.Percent, in.DurationDays)
	}
	start := s.now()
	return s.Create(ctx, CreateInput{
		Name:             name,
		Type:             domain.DiscountTypePercentage,
		Value:            in.Percent,
		Scope:            scope,
		CategoryIDs:      in.CategoryIDs,
		ProductIDs:       in.ProductIDs,
		BranchIDs:        in.BranchIDs,
		StartAt:          start,
		EndAt:            start.AddDate(0, 0, in.DurationDays),
		IsActive:         true,
		MaxDiscountCents: in.MaxDiscountCents,
	})
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", domain.ErrInvalid)
	}
	switch in.Type {
	case domain.DiscountTypePercentage:
		if in.Value <= 0 || in.Value > 100 {
			return fmt.Errorf("%w: percentage value must be in (0, 100]", domain.ErrInvalid)
		}
	case domain.DiscountTypeFixedAmount:
		if in.Value <= 0 {
			return fmt.Errorf("%w: fixed amount must be positive", domain.ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", domain.ErrInvalid, in.Type)
	}
	switch in.Scope {
	case domain.ScopeAllProducts:
	case domain.ScopeCategory:
		if len(in.CategoryIDs) == 0 {
			return fmt.Errorf("%w: category scope requires categoryIds", domain.ErrInvalid)
		}
	case domain.ScopeSpecificProducts:
		if len(in.ProductIDs) == 0 {
			return fmt.Errorf("%w: specific_products scope requires productIds", domain.ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown discount scope %q", domain.ErrInvalid, in.Scope)
	}
	if in.EndAt.Before(in.StartAt) {
		return fmt.Errorf("%w: endAt must not precede startAt", domain.ErrInvalid)
	}
	if in.CustomerRule != nil {
		if err := in.CustomerRule.Validate(); err != nil {
			return fmt.Errorf("%w: customer rule: %v", domain.ErrInvalid, err)
		}
	}
	return nil
}

// cartCategories fetches product -> category only when the discount needs it.
func (s *Service) cartCategories(ctx context.Context, d domain.Discount, cart domain.Cart) (map[string]string, error) {
	if d.Scope != domain.ScopeCategory {
		return nil, nil
	}
	return s.products.CategoriesByIDs(ctx, cartProductIDs(cart))
}

func (s *Service) cartCategoriesForAny(ctx context.Context, candidates []domain.Discount, cart domain.Cart) (map[string]string, error) {
	for _, d := range candidates {
		if d.Scope == domain.ScopeCategory {
			return s.products.CategoriesByIDs(ctx, cartProductIDs(cart))
		}
	}
	return nil, nil
}

// cartCustomer loads the cart's customer when any candidate carries an
// eligibility rule. An unknown customer is treated as not matching, not as a
// failure.
func (s *Service) cartCustomer(ctx context.Context, candidates []domain.Discount, cart domain.Cart) (*domain.Customer, error) {
	if cart.CustomerID == nil {
		return nil, nil
	}
	needed := false
	for _, d := range candidates {
		if d.CustomerRule != nil {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	cust, err := s.customers.GetByID(ctx, *cart.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cust, nil
}

func cartProductIDs(cart domain.Cart) []string {
	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func scopeMatchesProduct(d domain.Discount, p domain.Product) bool {
	switch d.Scope {
	case domain.ScopeAllProducts:
		return true
	case domain.ScopeCategory:
		for _, id := range d.CategoryIDs {
			if id == p.CategoryID {
				return true
			}
		}
	case domain.ScopeSpecificProducts:
		for _, id := range d.ProductIDs {
			if id == p.ID {
				return true
			}
		}
	}
	return false
}

// evaluate is the deterministic core: given the discount, the cart, the
// resolved category map and optional customer, produce validity, reason and
// the clamped amount.
func evaluate(d domain.Discount, cart domain.Cart, categories map[string]string, cust *domain.Customer, now time.Time) Evaluation {
	if !d.IsActive {
		return Evaluation{Reason: "discount is not active"}
	}
	if now.Before(d.StartAt) || now.After(d.EndAt) {
		return Evaluation{Reason: "discount is outside its validity window"}
	}
	if d.UsageExhausted() {
		return Evaluation{Reason: "usage limit reached"}
	}
	if d.MinPurchaseCents != nil && cart.SubtotalCents < *d.MinPurchaseCents {
		return Evaluation{Reason: fmt.Sprintf("minimum purchase of %s required", formatCents(*d.MinPurchaseCents))}
	}
	if d.CustomerRule != nil {
		if cust == nil || !d.CustomerRule.Eval(cust.RuleRecord()) {
			return Evaluation{Reason: "customer is not eligible"}
		}
	}

	applicable := applicableTotal(d, cart, categories)
	if applicable == 0 {
		return Evaluation{Reason: "no eligible items"}
	}

	amount := baseAmountCents(d, applicable)
	if d.MaxDiscountCents != nil && amount > *d.MaxDiscountCents {
		amount = *d.MaxDiscountCents
	}
	if amount > applicable {
		amount = applicable
	}
	return Evaluation{Valid: true, AmountCents: amount}
}

// applicableTotal is the whole cart subtotal for all_products and the sum of
// matching lines otherwise.
func applicableTotal(d domain.Discount, cart domain.Cart, categories map[string]string) int64 {
	if d.Scope == domain.ScopeAllProducts {
		return cart.SubtotalCents
	}
	var total int64
	for _, line := range cart.Lines {
		switch d.Scope {
		case domain.ScopeCategory:
			cat, ok := categories[line.ProductID]
			if !ok {
				continue
			}
			for _, id := range d.CategoryIDs {
				if id == cat {
					total += line.TotalCents()
					break
				}
			}
		case domain.ScopeSpecificProducts:
			for _, id := range d.ProductIDs {
				if id == line.ProductID {
					total += line.TotalCents()
					break
				}
			}
		}
	}
	return total
}

var hundred = decimal.NewFromInt(100)

func baseAmountCents(d domain.Discount, applicableCents int64) int64 {
	switch d.Type {
	case domain.DiscountTypePercentage:
		return decimal.NewFromInt(applicableCents).
			Mul(decimal.NewFromFloat(d.Value)).
			Div(hundred).
			Round(0).
			IntPart()
	case domain.DiscountTypeFixedAmount:
		return decimal.NewFromFloat(d.Value).Shift(2).Round(0).IntPart()
	}
	return 0
}

func formatCents(cents int64) string {
	return decimal.NewFromInt(cents).Shift(-2).String()
}
