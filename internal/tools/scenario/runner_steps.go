package scenario

import (
	"context"
	"fmt"
	"slices"
	"time"

	marketv1 "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/market"
)

func (r *Runner) runStep(ctx context.Context, target marketTarget, step Step) error {
	switch step.Kind {
	case "register":
		return r.runRegister(ctx, target, step)
	case "add_category":
		return r.runAddCategory(ctx, target, step)
	case "add_content":
		return r.runAddContent(ctx, target, step)
	case "activate":
		return r.runActivate(ctx, target, step)
	case "expect_content":
		return r.runExpectContent(ctx, target, step)
	case "claim", "claim_platform":
		return r.runClaim(ctx, target, step)
	case "update_fee_rate":
		return r.runUpdateFeeRate(ctx, target, step)
	case "update_register_payment":
		return r.runUpdateRegisterPayment(ctx, target, step)
	case "advance":
		return r.runAdvance(target, step)
	case "expect_balance":
		return r.runExpectBalance(ctx, target, step)
	case "expect_platform_balance":
		return r.runExpectPlatformBalance(ctx, target, step)
	case "expect_session":
		return r.runExpectSession(ctx, target, step)
	case "expect_producer":
		return r.runExpectProducer(ctx, target, step)
	case "verify_journal":
		return r.runVerifyJournal(ctx, target, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runRegister(ctx context.Context, target marketTarget, step Step) error {
	paid, err := requiredUint(step.Args, "paid")
	if err != nil {
		return err
	}
	_, callErr := target.client.Register(actorContext(ctx, step), &marketv1.RegisterRequest{
		Paid:               paid,
		ContentType:        optionalString(step.Args, "content_type"),
		ContentDescription: optionalString(step.Args, "description"),
	})
	return r.checkOutcome(step, callErr)
}

func (r *Runner) runAddCategory(ctx context.Context, target marketTarget, step Step) error {
	name, err := requiredString(step.Args, "name")
	if err != nil {
		return err
	}
	fee, err := requiredUint(step.Args, "fee")
	if err != nil {
		return err
	}
	duration, err := requiredUint(step.Args, "duration")
	if err != nil {
		return err
	}
	_, callErr := target.client.AddCategory(actorContext(ctx, step), &marketv1.AddCategoryRequest{
		Name:                   name,
		Description:            optionalString(step.Args, "description"),
		Fee:                    fee,
		SessionDurationSeconds: duration,
	})
	return r.checkOutcome(step, callErr)
}

func (r *Runner) runAddContent(ctx context.Context, target marketTarget, step Step) error {
	category, err := requiredString(step.Args, "category")
	if err != nil {
		return err
	}
	locator, err := requiredString(step.Args, "locator")
	if err != nil {
		return err
	}
	_, callErr := target.client.AddContent(actorContext(ctx, step), &marketv1.AddContentRequest{
		Category: category,
		Locator:  locator,
	})
	return r.checkOutcome(step, callErr)
}

func (r *Runner) runActivate(ctx context.Context, target marketTarget, step Step) error {
	producer, category, err := producerCategory(step.Args)
	if err != nil {
		return err
	}
	paid, err := requiredUint(step.Args, "paid")
	if err != nil {
		return err
	}
	resp, callErr := target.client.ActivateSession(actorContext(ctx, step), &marketv1.ActivateSessionRequest{
		Paid:     paid,
		Producer: producer,
		Category: category,
	})
	if err := r.checkOutcome(step, callErr); err != nil || callErr != nil {
		return err
	}
	r.logf("session for %s on %s/%s expires at %s", optionalString(step.Args, "as"), producer, category, resp.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (r *Runner) runExpectContent(ctx context.Context, target marketTarget, step Step) error {
	producer, category, err := producerCategory(step.Args)
	if err != nil {
		return err
	}
	consumer := optionalString(step.Args, "consumer")
	if consumer == "" {
		consumer = optionalString(step.Args, "as")
	}
	resp, callErr := target.client.GetContent(actorContext(ctx, step), &marketv1.GetContentRequest{
		Consumer: consumer,
		Producer: producer,
		Category: category,
	})
	if err := r.checkOutcome(step, callErr); err != nil || callErr != nil {
		return err
	}
	if _, ok := step.Args["content"]; !ok {
		return nil
	}
	want, err := stringList(step.Args, "content")
	if err != nil {
		return err
	}
	if !slices.Equal(resp.Content, want) {
		return r.assertions.Failf("content of %s/%s = %v, want %v", producer, category, resp.Content, want)
	}
	return nil
}

func (r *Runner) runClaim(ctx context.Context, target marketTarget, step Step) error {
	destination, err := requiredString(step.Args, "destination")
	if err != nil {
		return err
	}
	req := &marketv1.ClaimRoyaltiesRequest{Destination: destination}
	var resp *marketv1.ClaimRoyaltiesResponse
	var callErr error
	if step.Kind == "claim_platform" {
		resp, callErr = target.client.ClaimPlatformRoyalties(actorContext(ctx, step), req)
	} else {
		resp, callErr = target.client.ClaimProducerRoyalties(actorContext(ctx, step), req)
	}
	if err := r.checkOutcome(step, callErr); err != nil || callErr != nil {
		return err
	}
	if _, ok := step.Args["expect_amount"]; !ok {
		return nil
	}
	want, err := requiredUint(step.Args, "expect_amount")
	if err != nil {
		return err
	}
	if resp.Amount != want {
		return r.assertions.Failf("claimed amount = %d, want %d", resp.Amount, want)
	}
	return nil
}

func (r *Runner) runUpdateFeeRate(ctx context.Context, target marketTarget, step Step) error {
	rate, err := requiredUint(step.Args, "rate")
	if err != nil {
		return err
	}
	if rate > uint64(^uint32(0)) {
		return fmt.Errorf("rate %d is out of range", rate)
	}
	_, callErr := target.client.UpdatePlatformFeeRate(actorContext(ctx, step), &marketv1.UpdatePlatformFeeRateRequest{
		FeeRateBasePoints: uint32(rate),
	})
	return r.checkOutcome(step, callErr)
}

func (r *Runner) runUpdateRegisterPayment(ctx context.Context, target marketTarget, step Step) error {
	amount, err := requiredUint(step.Args, "amount")
	if err != nil {
		return err
	}
	_, callErr := target.client.UpdateRegisterPayment(actorContext(ctx, step), &marketv1.UpdateRegisterPaymentRequest{
		Amount: amount,
	})
	return r.checkOutcome(step, callErr)
}

func (r *Runner) runAdvance(target marketTarget, step Step) error {
	if target.clock == nil {
		return fmt.Errorf("advance requires the in-process market")
	}
	seconds, err := requiredUint(step.Args, "seconds")
	if err != nil {
		return err
	}
	target.clock.Advance(time.Duration(seconds) * time.Second)
	r.logf("clock advanced to %s", target.clock.Now().Format(time.RFC3339))
	return nil
}

func (r *Runner) runExpectBalance(ctx context.Context, target marketTarget, step Step) error {
	producer, err := requiredString(step.Args, "producer")
	if err != nil {
		return err
	}
	want, err := requiredUint(step.Args, "amount")
	if err != nil {
		return err
	}
	resp, err := target.client.GetProducerBalance(ctx, &marketv1.GetProducerBalanceRequest{Producer: producer})
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", producer, err)
	}
	if resp.Amount != want {
		return r.assertions.Failf("balance of %s = %d, want %d", producer, resp.Amount, want)
	}
	return nil
}

func (r *Runner) runExpectPlatformBalance(ctx context.Context, target marketTarget, step Step) error {
	want, err := requiredUint(step.Args, "amount")
	if err != nil {
		return err
	}
	resp, err := target.client.GetPlatformBalance(ctx, &marketv1.GetPlatformBalanceRequest{})
	if err != nil {
		return fmt.Errorf("get platform balance: %w", err)
	}
	if resp.Amount != want {
		return r.assertions.Failf("platform balance = %d, want %d", resp.Amount, want)
	}
	return nil
}

func (r *Runner) runExpectSession(ctx context.Context, target marketTarget, step Step) error {
	consumer, err := requiredString(step.Args, "consumer")
	if err != nil {
		return err
	}
	producer, category, err := producerCategory(step.Args)
	if err != nil {
		return err
	}
	want, err := requiredBool(step.Args, "active")
	if err != nil {
		return err
	}
	resp, err := target.client.GetSession(ctx, &marketv1.GetSessionRequest{
		Consumer: consumer,
		Producer: producer,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if resp.Active != want {
		return r.assertions.Failf("session %s on %s/%s active = %v, want %v", consumer, producer, category, resp.Active, want)
	}
	return nil
}

func (r *Runner) runExpectProducer(ctx context.Context, target marketTarget, step Step) error {
	principal, err := requiredString(step.Args, "principal")
	if err != nil {
		return err
	}
	want, err := requiredBool(step.Args, "is_producer")
	if err != nil {
		return err
	}
	resp, err := target.client.IsProducer(ctx, &marketv1.IsProducerRequest{Principal: principal})
	if err != nil {
		return fmt.Errorf("is producer: %w", err)
	}
	if resp.IsProducer != want {
		return r.assertions.Failf("is_producer(%s) = %v, want %v", principal, resp.IsProducer, want)
	}
	return nil
}

func (r *Runner) runVerifyJournal(ctx context.Context, target marketTarget, step Step) error {
	resp, err := target.client.VerifyJournal(ctx, &marketv1.VerifyJournalRequest{})
	if err != nil {
		return r.assertions.Failf("verify journal: %v", err)
	}
	r.logf("journal verified: %d events, head %s", resp.EventCount, resp.HeadChainHash)
	if _, ok := step.Args["events"]; !ok {
		return nil
	}
	want, err := requiredUint(step.Args, "events")
	if err != nil {
		return err
	}
	if resp.EventCount != want {
		return r.assertions.Failf("journal events = %d, want %d", resp.EventCount, want)
	}
	return nil
}
