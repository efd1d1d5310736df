package strategy

import (
	"context"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	oauthparams "github.com/jrsteele09/go-oauth2-strategy/oauth2"
)

// Outcome is the result class of a callback request.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeProviderError
	OutcomeCSRF
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeCSRF:
		return "csrf_detected"
	default:
		return "unknown"
	}
}

// CallbackRequest holds the parameters the authorization server sends back.
type CallbackRequest struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	ErrorReason      string
	ErrorURI         string
}

// ParseCallbackRequest reads the callback parameters from req.
func ParseCallbackRequest(req HostRequest) CallbackRequest {
	return CallbackRequest{
		Code:             req.Params.Get(oauthparams.ParamCode),
		State:            req.Params.Get(oauthparams.ParamState),
		Error:            req.Params.Get(oauthparams.ParamError),
		ErrorDescription: req.Params.Get(oauthparams.ParamErrorDescription),
		ErrorReason:      req.Params.Get(oauthparams.ParamErrorReason),
		ErrorURI:         req.Params.Get(oauthparams.ParamErrorURI),
	}
}

// Classification is exactly one of: Ok with a code, or a failure with Err set.
type Classification struct {
	Outcome Outcome
	Code    string
	Err     *CallbackError
}

// Classify consumes the stored state token for req and classifies the callback.
// Provider errors are reported ahead of CSRF failures.
func (c *FlowController) Classify(ctx context.Context, req HostRequest) Classification {
	cb := ParseCallbackRequest(req)

	// Consume first so a token can never be presented twice, whatever the outcome.
	expected, found, storeErr := c.consumeState(ctx, req.SessionKey)

	if cb.Error != "" || cb.ErrorReason != "" {
		code := cb.Error
		if code == "" {
			code = cb.ErrorReason
		}
		reason := cb.ErrorDescription
		if reason == "" {
			reason = cb.ErrorReason
		}
		return Classification{
			Outcome: OutcomeProviderError,
			Err:     newCallbackError(KindProviderError, code, reason, cb.ErrorURI, nil),
		}
	}

	if !c.config.IgnoreState {
		var cause error
		switch {
		case storeErr != nil:
			cause = storeErr
		case cb.State == "":
			cause = errors.Wrapf(errors.ErrStateMismatch, "callback carried no state")
		case !found:
			cause = errors.Wrapf(errors.ErrStateMismatch, "no pending state for this flow")
		case !VerifyState(expected, cb.State):
			cause = errors.ErrStateMismatch
		}
		if cause != nil {
			return Classification{
				Outcome: OutcomeCSRF,
				Err:     newCallbackError(KindCSRFDetected, string(KindCSRFDetected), "CSRF detected", "", cause),
			}
		}
	}

	return Classification{Outcome: OutcomeOK, Code: cb.Code}
}

func (c *FlowController) consumeState(ctx context.Context, key string) (string, bool, error) {
	if key == "" || c.store == nil {
		return "", false, nil
	}
	state, found, err := c.store.GetAndDelete(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to consume state")
		return "", false, err
	}
	return state, found, nil
}
