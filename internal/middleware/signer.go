package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/walletfriends/internal/api"
	"github.com/jason-s-yu/walletfriends/internal/auth"
	"github.com/sirupsen/logrus"
)

const (
	HeaderPublicKey = "X-Public-Key"
	HeaderSignature = "X-Signature"
	HeaderMessage   = "X-Message"

	// SessionCookie carries the JWT issued by the session endpoint.
	SessionCookie = "auth_token"

	maxSignedBodyBytes = 64 << 10
)

var errNoEnvelope = errors.New("missing signed message")

// Envelope is a verified signed request: the derived signer plus the raw signature and the
// exact message bytes it covers.
type Envelope struct {
	Signer    string
	PublicKey string
	Signature string
	Message   string
}

type ctxKey int

const (
	envelopeKey ctxKey = iota
	signerKey
)

type signedBody struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

// EnvelopeFromContext returns the envelope attached by RequireSignedMessage.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeKey).(Envelope)
	return env, ok
}

// SignerFromContext returns the verified wallet address attached by either middleware.
func SignerFromContext(ctx context.Context) (string, bool) {
	if env, ok := EnvelopeFromContext(ctx); ok {
		return env.Signer, true
	}
	signer, ok := ctx.Value(signerKey).(string)
	return signer, ok && signer != ""
}

// WithSigner returns a copy of ctx carrying signer as the verified wallet.
func WithSigner(ctx context.Context, signer string) context.Context {
	return context.WithValue(ctx, signerKey, signer)
}

// RequireSignedMessage verifies the signed envelope of a request and attaches it to the context.
// The envelope is read from the X-Public-Key/X-Signature/X-Message headers when present,
// otherwise from a JSON body {"public_key","signature","message"}.
func RequireSignedMessage(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, err := readEnvelope(w, r, true)
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected unsigned request")
				api.Error(w, http.StatusUnauthorized, "invalid signed request")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), envelopeKey, env)))
		})
	}
}

// RequireSigner authenticates read requests. It accepts signed headers or, failing that, a
// session cookie issued by the session endpoint.
func RequireSigner(sessions *auth.Sessions, logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, err := readEnvelope(w, r, false)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), envelopeKey, env)))
				return
			}
			if !errors.Is(err, errNoEnvelope) {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected signed headers")
				api.Error(w, http.StatusUnauthorized, "invalid signed request")
				return
			}

			cookie, cerr := r.Cookie(SessionCookie)
			if cerr != nil || cookie.Value == "" {
				api.Error(w, http.StatusUnauthorized, "missing auth_token")
				return
			}
			signer, err := sessions.AuthenticateJWT(cookie.Value)
			if err != nil {
				api.Error(w, http.StatusForbidden, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSigner(r.Context(), signer)))
		})
	}
}

// readEnvelope extracts and verifies the signed envelope. When allowBody is false only the
// headers are consulted.
func readEnvelope(w http.ResponseWriter, r *http.Request, allowBody bool) (Envelope, error) {
	body := signedBody{
		PublicKey: r.Header.Get(HeaderPublicKey),
		Signature: r.Header.Get(HeaderSignature),
		Message:   r.Header.Get(HeaderMessage),
	}
	if body.PublicKey == "" && body.Signature == "" {
		if !allowBody || r.Body == nil {
			return Envelope{}, errNoEnvelope
		}
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSignedBodyBytes))
		if err != nil {
			return Envelope{}, err
		}
		if len(data) == 0 {
			return Envelope{}, errNoEnvelope
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return Envelope{}, err
		}
	}
	if body.PublicKey == "" || body.Signature == "" {
		return Envelope{}, errNoEnvelope
	}

	signer, err := auth.VerifySignedMessage(body.PublicKey, body.Signature, body.Message)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Signer:    signer,
		PublicKey: body.PublicKey,
		Signature: body.Signature,
		Message:   body.Message,
	}, nil
}
