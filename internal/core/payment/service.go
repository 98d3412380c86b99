package payment

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/user"
	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/pkg/common"
)

// PremiumNotifier is told when a payment activates premium. Delivery is
// best-effort.
type PremiumNotifier interface {
	PremiumActivated(ctx context.Context, userID primitive.ObjectID, packageType string, expires time.Time)
}

// Service implements order creation, webhook status updates and the
// premium entitlement check.
type Service struct {
	repo     *Repository
	users    *user.Repository
	gateway  *Gateway
	notifier PremiumNotifier
	cfg      config.PaymentConfig
	log      *zap.Logger
}

// NewService creates a payment service.
func NewService(repo *Repository, users *user.Repository, gateway *Gateway, notifier PremiumNotifier, cfg config.PaymentConfig, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		log:      log.Named("payment-service"),
	}
}

// CreateOrder starts a premium purchase. Trials cost nothing and
// activate immediately; monthly orders go through the gateway and stay
// pending until the webhook confirms them.
func (s *Service) CreateOrder(ctx context.Context, usr *user.User, packageType string) (*Payment, error) {
	switch packageType {
	case PackageTrial:
		return s.createTrial(ctx, usr)
	case PackageMonthly:
		return s.createMonthly(ctx, usr)
	default:
		return nil, common.NewValidationError("packageType must be 'monthly' or 'trial'")
	}
}

func (s *Service) createTrial(ctx context.Context, usr *user.User) (*Payment, error) {
	now := time.Now()
	expires := premiumExpiry(usr, now, PackageTrial)

	p := &Payment{
		OrderCode:   newOrderCode(now),
		UserID:      usr.ID,
		Amount:      0,
		Description: "Premium trial",
		Status:      StatusPaid,
		PackageType: PackageTrial,
		ExpiredAt:   &expires,
		PaidAt:      &now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.users.SetPremium(ctx, usr.ID, true, expires, PackageTrial); err != nil {
		return nil, err
	}
	s.notify(ctx, usr.ID, PackageTrial, expires)
	s.log.Info("trial activated", zap.String("user_id", usr.ID.Hex()), zap.Time("expires", expires))
	return p, nil
}

func (s *Service) createMonthly(ctx context.Context, usr *user.User) (*Payment, error) {
	now := time.Now()
	amount := monthlyPriceVND
	if usr.IsStudent() {
		amount = monthlyStudentPriceVND
	}

	orderCode := newOrderCode(now)
	// The cancel return URL carries the unguessable payment reference so
	// only the checkout session it was issued to can abandon the order.
	reference := common.GenerateUUID()
	link, err := s.gateway.CreatePaymentLink(ctx, CheckoutRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: "Premium monthly",
		ReturnURL:   fmt.Sprintf("%s/api/v1/payments/success?orderCode=%d", s.cfg.ReturnBase, orderCode),
		CancelURL:   fmt.Sprintf("%s/api/v1/payments/cancel?orderCode=%d&ref=%s", s.cfg.ReturnBase, orderCode, reference),
	})
	if err != nil {
		return nil, err
	}

	linkExpiry := now.Add(pendingOrderTTL)
	p := &Payment{
		Reference:   reference,
		OrderCode:   orderCode,
		UserID:      usr.ID,
		Amount:      amount,
		Description: "Premium monthly",
		Status:      StatusPending,
		PackageType: PackageMonthly,
		CheckoutURL: link.CheckoutURL,
		QRCode:      link.QRCode,
		ExpiredAt:   &linkExpiry,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus applies a status transition reported by the gateway. A
// transition to paid extends the premium window and syncs the user
// record. Repeated paid reports are idempotent.
func (s *Service) UpdateStatus(ctx context.Context, orderCode int64, status string) (*Payment, error) {
	if !ValidStatus(status) {
		return nil, common.NewValidationError("unknown payment status: " + status)
	}

	p, err := s.repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}
	if p.Status == StatusPaid {
		return nil, common.NewError(common.ErrCodeConflict, "payment is already paid", 409, nil)
	}

	set := bson.M{"status": status}
	if status == StatusPaid {
		usr, err := s.users.FindByID(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		expires := premiumExpiry(usr, now, p.PackageType)
		set["paidAt"] = now
		set["expiredAt"] = expires

		p, err = s.repo.UpdateStatus(ctx, orderCode, set)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetPremium(ctx, usr.ID, true, expires, p.PackageType); err != nil {
			return nil, err
		}
		s.notify(ctx, usr.ID, p.PackageType, expires)
		s.log.Info("payment confirmed",
			zap.Int64("order_code", orderCode),
			zap.String("user_id", usr.ID.Hex()),
			zap.Time("premium_expires", expires),
		)
		return p, nil
	}

	return s.repo.UpdateStatus(ctx, orderCode, set)
}

// HandleWebhook verifies the gateway signature and applies the reported
// status.
func (s *Service) HandleWebhook(ctx context.Context, data map[string]interface{}, signature string) (*Payment, error) {
	// Verification is skipped only when no checksum key is configured
	// (local development against a gateway simulator).
	if s.cfg.ChecksumKey != "" && !s.gateway.VerifySignature(data, signature) {
		return nil, common.NewError(common.ErrCodeForbidden, "invalid webhook signature", 403, nil)
	}

	orderCode, ok := numericField(data, "orderCode")
	if !ok {
		return nil, common.NewValidationError("webhook payload missing orderCode")
	}
	status := StatusPaid
	if code, _ := data["code"].(string); code != "" && code != "00" {
		status = StatusFailed
	}
	return s.UpdateStatus(ctx, orderCode, status)
}

// CancelFromReturn marks an order cancelled on behalf of the browser
// coming back from an abandoned checkout. The caller is anonymous, so
// the request must present the reference token minted into the cancel
// URL; the webhook remains the authoritative status source.
func (s *Service) CancelFromReturn(ctx context.Context, orderCode int64, reference string) (*Payment, error) {
	p, err := s.repo.FindByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if err := verifyCancelToken(p, reference); err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, orderCode, StatusCancelled)
}

// verifyCancelToken checks the return-URL token in constant time.
func verifyCancelToken(p *Payment, reference string) error {
	if reference == "" || p.Reference == "" ||
		subtle.ConstantTimeCompare([]byte(p.Reference), []byte(reference)) != 1 {
		return common.NewError(common.ErrCodeForbidden, "cancel token mismatch", 403, nil)
	}
	return nil
}

// ListByUser returns a user's payment history page, optionally filtered
// by status.
func (s *Service) ListByUser(ctx context.Context, userID primitive.ObjectID, status string, p common.Pagination) ([]Payment, int64, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, common.NewValidationError("unknown payment status: " + status)
	}
	return s.repo.ListByUser(ctx, userID, status, p)
}

// IsPremiumActive reports whether the user can use premium features: an
// unexpired premium flag on the profile, or any paid unexpired payment.
func (s *Service) IsPremiumActive(ctx context.Context, u *user.User) (bool, error) {
	if u == nil {
		return false, nil
	}
	now := time.Now()
	if u.PremiumMembership && u.PremiumMembershipExpires != nil && u.PremiumMembershipExpires.After(now) {
		return true, nil
	}
	return s.repo.HasActivePaid(ctx, u.ID, now)
}

func (s *Service) notify(ctx context.Context, userID primitive.ObjectID, packageType string, expires time.Time) {
	if s.notifier != nil {
		s.notifier.PremiumActivated(ctx, userID, packageType, expires)
	}
}

// premiumExpiry extends from the current expiry when it is still in the
// future, so stacking purchases never loses paid-for days.
func premiumExpiry(usr *user.User, now time.Time, packageType string) time.Time {
	base := now
	if usr.PremiumMembershipExpires != nil && usr.PremiumMembershipExpires.After(now) {
		base = *usr.PremiumMembershipExpires
	}
	return base.Add(packageDuration(packageType))
}

// newOrderCode derives a gateway order code from the creation time.
func newOrderCode(now time.Time) int64 {
	return now.UnixMilli()
}

func numericField(data map[string]interface{}, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
