// Package audit registra eventos de login y denegación.
// Para el núcleo es fire-and-forget: auditar nunca bloquea ni hace fallar una emisión.
package audit

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind del evento. Hoy el núcleo solo emite Login.
type Kind string

const Login Kind = "login"

// Detalles usados por los grant handlers.
const (
	DetailLoginSuccess      = "Login Success"
	DetailInvalidCredential = "Invalid Credential"
	DetailAccountNotActive  = "Account not Active"
	DetailRefreshSuccess    = "Refresh Token Success"
	DetailRefreshReused     = "Refresh Token Reused"
	DetailRefreshRejected   = "Refresh Token Rejected"
	DetailCodeExchanged     = "Authorization Code Exchanged"
	DetailCodeRejected      = "Authorization Code Rejected"
	DetailClientCredentials = "Client Credentials"
	DetailLogoutAll         = "Logout All Sessions"
)

type Event struct {
	ID          string
	Kind        Kind
	TenantID    string
	PrincipalID string
	ClientID    string
	SourceIP    string
	Detail      string
	At          time.Time
}

// Sink recibe eventos. RecordEvent no debería bloquear mucho; usar Async delante.
type Sink interface {
	RecordEvent(ctx context.Context, ev Event) error
}

// SinkFunc adapta una función a Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) RecordEvent(ctx context.Context, ev Event) error { return f(ctx, ev) }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID devuelve un ULID: ordenable por tiempo, sirve de PK.
func NewID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// stamp completa ID y At si faltan.
func stamp(ev Event) Event {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.ID == "" {
		ev.ID = NewID(ev.At)
	}
	if ev.Kind == "" {
		ev.Kind = Login
	}
	return ev
}
