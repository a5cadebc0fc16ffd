package handlers

import (
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
	"assofund/internal/core/services"
	"assofund/internal/pkg/money"
	"assofund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DuesHandler exposes the dues ledger: payments, initial debts, period
// generation, reminders and per-member listings.
type DuesHandler struct {
	allocation *services.AllocationService
	arrears    *services.ArrearsService
	periods    *services.PeriodService
	reminders  *services.ReminderService
	members    *services.MemberService

	obligationRepo *repositories.ObligationRepository
	paymentRepo    *repositories.PaymentRepository
	creditRepo     *repositories.CreditRepository
	debtRepo       *repositories.InitialDebtRepository
}

// NewDuesHandler creates a new dues handler
func NewDuesHandler(
	allocation *services.AllocationService,
	arrears *services.ArrearsService,
	periods *services.PeriodService,
	reminders *services.ReminderService,
	members *services.MemberService,
	obligationRepo *repositories.ObligationRepository,
	paymentRepo *repositories.PaymentRepository,
	creditRepo *repositories.CreditRepository,
	debtRepo *repositories.InitialDebtRepository,
) *DuesHandler {
	return &DuesHandler{
		allocation:     allocation,
		arrears:        arrears,
		periods:        periods,
		reminders:      reminders,
		members:        members,
		obligationRepo: obligationRepo,
		paymentRepo:    paymentRepo,
		creditRepo:     creditRepo,
		debtRepo:       debtRepo,
	}
}

// RecordPaymentRequest represents a manual payment entry
type RecordPaymentRequest struct {
	MembNo    string      `json:"memb_no"`
	DueType   string      `json:"due_type"`
	Amount    money.Money `json:"amount"`
	Method    string      `json:"method"`
	PaidAt    *time.Time  `json:"paid_at,omitempty"`
	Reference string      `json:"reference,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// RecordPayment handles POST /api/v1/dues/payments
func (h *DuesHandler) RecordPayment(c *fiber.Ctx) error {
	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	dueType, ok := models.ParseDueType(req.DueType)
	if !ok {
		return response.BadRequest(c, "due_type must be flat_fee or assistance_fee")
	}

	member, err := h.members.GetByMembNo(c.Context(), req.MembNo)
	if err != nil {
		return respondDomainError(c, err)
	}

	in := services.RecordPaymentInput{
		MemberID:  member.ID,
		DueType:   dueType,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Note:      req.Note,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}

	result, err := h.allocation.RecordManualPayment(c.Context(), in)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Created(c, "Payment recorded", result)
}

// CreateInitialDebtRequest represents a carried-over opening balance
type CreateInitialDebtRequest struct {
	MembNo string      `json:"memb_no"`
	Year   int         `json:"year"`
	Amount money.Money `json:"amount"`
}

// CreateInitialDebt handles POST /api/v1/dues/initial-debts
func (h *DuesHandler) CreateInitialDebt(c *fiber.Ctx) error {
	var req CreateInitialDebtRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.members.GetByMembNo(c.Context(), req.MembNo)
	if err != nil {
		return respondDomainError(c, err)
	}

	debt, swept, err := h.allocation.CreateInitialDebt(c.Context(), member.ID, req.Year, req.Amount)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Created(c, "Initial debt recorded", fiber.Map{
		"initial_debt":  debt,
		"credits_swept": swept,
	})
}

// GeneratePeriodRequest represents a monthly generation run
type GeneratePeriodRequest struct {
	Period string `json:"period"` // "YYYY-MM", defaults to the current month
}

// GeneratePeriod handles POST /api/v1/dues/periods/generate
func (h *DuesHandler) GeneratePeriod(c *fiber.Ctx) error {
	var req GeneratePeriodRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	period := domain.PeriodOf(time.Now())
	if req.Period != "" {
		parsed, err := domain.ParsePeriod(req.Period)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		period = parsed
	}

	cfg := config.AppConfig.Dues
	created, err := h.periods.GenerateMonthlyObligations(c.Context(), period, cfg.FlatFee, cfg.AssistanceFee)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Obligations generated", fiber.Map{
		"period":  period.String(),
		"created": created,
	})
}

// GenerateReminders handles POST /api/v1/dues/reminders/generate
func (h *DuesHandler) GenerateReminders(c *fiber.Ctx) error {
	created, err := h.reminders.GenerateReminders(c.Context())
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Reminders generated", fiber.Map{
		"created": created,
	})
}

// DebtSummary handles GET /api/v1/members/:membNo/debt-summary
func (h *DuesHandler) DebtSummary(c *fiber.Ctx) error {
	member, err := h.members.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	summary, err := h.arrears.GetMemberDebtSummary(c.Context(), member.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	c.Set("Cache-Control", "no-store")
	return response.Success(c, "Debt summary", summary)
}

// ListObligations handles GET /api/v1/members/:membNo/obligations
func (h *DuesHandler) ListObligations(c *fiber.Ctx) error {
	member, err := h.members.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	obligations, err := h.obligationRepo.ListByMember(c.Context(), member.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Obligations retrieved", obligations)
}

// ListPayments handles GET /api/v1/members/:membNo/payments
func (h *DuesHandler) ListPayments(c *fiber.Ctx) error {
	member, err := h.members.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	payments, err := h.paymentRepo.ListByMember(c.Context(), member.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Payments retrieved", payments)
}

// ListCredits handles GET /api/v1/members/:membNo/credits
func (h *DuesHandler) ListCredits(c *fiber.Ctx) error {
	member, err := h.members.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	credits, err := h.creditRepo.ListByMember(c.Context(), member.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Credits retrieved", credits)
}

// ListInitialDebts handles GET /api/v1/members/:membNo/initial-debts
func (h *DuesHandler) ListInitialDebts(c *fiber.Ctx) error {
	member, err := h.members.GetByMembNo(c.Context(), c.Params("membNo"))
	if err != nil {
		return respondDomainError(c, err)
	}

	debts, err := h.debtRepo.ListByMember(c.Context(), member.ID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return response.Success(c, "Initial debts retrieved", debts)
}
