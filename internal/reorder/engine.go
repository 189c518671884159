// internal/reorder/engine.go
package reorder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/retailops/replenish/internal/domain"
)

// Input is everything one reorder evaluation needs: the inventory snapshot,
// the quantile forecast covering at least the lead-time window, the supplier
// constraints, and the unit cost.
type Input struct {
	StoreID    string
	ProductID  string
	SupplierID string
	Position   domain.InventoryPosition
	Forecast   []domain.ForecastPoint
	Config     domain.ReorderConfig
	UnitCost   decimal.Decimal
}

// Engine turns quantile forecasts and an inventory position into a reorder
// recommendation. Evaluate is pure and stateless: identical inputs always
// yield an identical recommendation, so concurrent calls across products need
// no coordination.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock fixes the evaluation timestamp; used by tests and batch
// runs that stamp a whole batch consistently.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Evaluate runs the reorder algorithm:
//
//  1. Lead-time demand is the sum of daily P90 forecasts over the lead time.
//     Summing daily P90s overstates the true P90 of cumulative demand under
//     positive correlation; this conservative bias is deliberate and relied on
//     by the urgency and budget policy downstream.
//  2. Safety stock: z(service) * sqrt(L*var + mean^2 * ltStd^2), with daily
//     variance derived from the P50/P90 spread.
//  3. Reorder point = P50 lead-time demand + safety stock.
//  4. Shortfall against net position (on hand + on order - allocated),
//     triggered only when net position is below P90 lead-time demand.
//  5. MOQ, case-pack round-up, then the budget cap, which only ever reduces
//     the quantity and fails with *domain.BudgetInfeasibleError when the
//     reduced quantity would fall below the MOQ.
func (e *Engine) Evaluate(in Input) (domain.ReorderRecommendation, error) {
	if err := in.Config.Validate(); err != nil {
		return domain.ReorderRecommendation{}, err
	}
	if in.UnitCost.IsNegative() {
		return domain.ReorderRecommendation{}, domain.NewValidationError("unit_cost", "must not be negative")
	}

	cfg := in.Config
	leadDays := cfg.LeadTimeDays
	if len(in.Forecast) < leadDays {
		return domain.ReorderRecommendation{}, &domain.InsufficientHorizonError{
			StoreID:      in.StoreID,
			ProductID:    in.ProductID,
			HorizonDays:  len(in.Forecast),
			LeadTimeDays: leadDays,
		}
	}

	z90 := distuv.UnitNormal.Quantile(0.90)
	zService := distuv.UnitNormal.Quantile(cfg.ServiceLevel)

	var leadP50, leadP90, sigmaSum float64
	for _, p := range in.Forecast[:leadDays] {
		leadP50 += p.P50
		leadP90 += p.P90
		sigmaSum += (p.P90 - p.P50) / z90
	}

	var meanDaily, sigmaDaily float64
	if leadDays > 0 {
		meanDaily = leadP50 / float64(leadDays)
		sigmaDaily = sigmaSum / float64(leadDays)
	}

	safety := zService * math.Sqrt(
		float64(leadDays)*sigmaDaily*sigmaDaily+
			meanDaily*meanDaily*cfg.LeadTimeStdDays*cfg.LeadTimeStdDays)
	safety = math.Max(0, safety)

	safetyStock := int64(math.Ceil(safety))
	reorderPoint := int64(math.Ceil(leadP50 + safety))

	net := in.Position.NetPosition()

	var quantity int64
	if net < leadP90 {
		shortfall := leadP90 + safety - net
		quantity = int64(math.Ceil(shortfall))
		if quantity < cfg.MinOrderQuantity {
			quantity = cfg.MinOrderQuantity
		}
		quantity = roundUpToCase(quantity, cfg.CasePackSize)
	}

	totalCost := in.UnitCost.Mul(decimal.NewFromInt(quantity))

	if quantity > 0 && cfg.BudgetCap != nil && totalCost.GreaterThan(*cfg.BudgetCap) {
		reduced, err := fitToBudget(in, quantity)
		if err != nil {
			return domain.ReorderRecommendation{}, err
		}
		quantity = reduced
		totalCost = in.UnitCost.Mul(decimal.NewFromInt(quantity))
	}

	urgency := classifyUrgency(net, float64(safetyStock), float64(reorderPoint), quantity)

	rec := domain.ReorderRecommendation{
		ProductID:         in.ProductID,
		StoreID:           in.StoreID,
		SupplierID:        in.SupplierID,
		CurrentInventory:  in.Position.OnHand,
		NetPosition:       net,
		ReorderPoint:      reorderPoint,
		SafetyStock:       safetyStock,
		LeadTimeDemandP50: leadP50,
		LeadTimeDemandP90: leadP90,
		SuggestedQuantity: quantity,
		UnitCost:          in.UnitCost,
		TotalCost:         totalCost,
		Urgency:           urgency,
		EvaluatedAt:       e.now().UTC(),
	}
	rec.Rationale = buildRationale(rec, cfg)

	return rec, nil
}

// roundUpToCase rounds quantity up to the next multiple of the case pack.
func roundUpToCase(quantity, casePack int64) int64 {
	if casePack <= 1 || quantity <= 0 {
		return quantity
	}

	return (quantity + casePack - 1) / casePack * casePack
}

// fitToBudget reduces the quantity to the largest case-pack multiple whose
// cost stays within the budget cap. Reduction only; never increases.
func fitToBudget(in Input, quantity int64) (int64, error) {
	cfg := in.Config
	budget := *cfg.BudgetCap

	infeasible := func() error {
		minQty := cfg.MinOrderQuantity
		if minQty < 1 {
			minQty = 1
		}
		minQty = roundUpToCase(minQty, cfg.CasePackSize)

		return &domain.BudgetInfeasibleError{
			StoreID:   in.StoreID,
			ProductID: in.ProductID,
			BudgetCap: budget.String(),
			MinCost:   in.UnitCost.Mul(decimal.NewFromInt(minQty)).String(),
		}
	}

	if in.UnitCost.IsZero() {
		// Zero cost never exceeds the cap.
		return quantity, nil
	}

	maxUnits := budget.Div(in.UnitCost).Floor().IntPart()
	fitted := maxUnits / cfg.CasePackSize * cfg.CasePackSize
	if fitted > quantity {
		fitted = quantity
	}
	if fitted <= 0 || fitted < cfg.MinOrderQuantity {
		return 0, infeasible()
	}

	return fitted, nil
}

func classifyUrgency(net, safetyStock, reorderPoint float64, quantity int64) domain.Urgency {
	if quantity == 0 {
		return domain.UrgencyLow
	}

	switch {
	case net <= 0:
		return domain.UrgencyCritical
	case net < safetyStock:
		return domain.UrgencyHigh
	case net < reorderPoint:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

func buildRationale(rec domain.ReorderRecommendation, cfg domain.ReorderConfig) string {
	var parts []string

	switch rec.Urgency {
	case domain.UrgencyCritical:
		parts = append(parts, "Critical: net position is zero or negative")
	case domain.UrgencyHigh:
		parts = append(parts, fmt.Sprintf("Net position (%.0f) below safety stock (%d)", rec.NetPosition, rec.SafetyStock))
	case domain.UrgencyMedium:
		parts = append(parts, fmt.Sprintf("Net position (%.0f) below reorder point (%d)", rec.NetPosition, rec.ReorderPoint))
	}

	parts = append(parts, fmt.Sprintf("P90 demand over %d-day lead time: %.1f", cfg.LeadTimeDays, rec.LeadTimeDemandP90))
	parts = append(parts, fmt.Sprintf("Safety stock: %d", rec.SafetyStock))

	if rec.SuggestedQuantity > 0 {
		parts = append(parts, fmt.Sprintf("Recommended order: %d units at %s each", rec.SuggestedQuantity, rec.UnitCost.StringFixed(2)))
		if rec.Urgency == domain.UrgencyCritical {
			parts = append(parts, "Order immediately to prevent stockout")
		}
	} else {
		parts = append(parts, "No reorder needed at this time")
	}

	return strings.Join(parts, ". ")
}
