package session

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/wolfman30/health-erp-chatbot/internal/healthapi"
	"github.com/wolfman30/health-erp-chatbot/internal/identity"
	"github.com/wolfman30/health-erp-chatbot/pkg/logging"
)

const defaultExternalMaxAge = 24 * time.Hour

// CookieList accepts either a single cookie string or an array of them.
type CookieList []string

func (c *CookieList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*c = nil
			return nil
		}
		*c = CookieList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

// SessionData is the externally authenticated identity supplied by a caller
// alongside a chat request.
type SessionData struct {
	Patient      *healthapi.PatientProfile `json:"patient"`
	Token        string                    `json:"token,omitempty"`
	SessionToken string                    `json:"sessionToken,omitempty"`
	Cookies      CookieList                `json:"cookies,omitempty"`
	AuthType     string                    `json:"authType,omitempty"`
}

// Bridge binds external identities to sessions and decides whether a
// binding can still be used.
type Bridge struct {
	maxAge time.Duration
	now    func() time.Time
	logger *logging.Logger
}

// NewBridge creates a Bridge whose bindings stay valid for maxAge.
func NewBridge(maxAge time.Duration, logger *logging.Logger) *Bridge {
	if maxAge <= 0 {
		maxAge = defaultExternalMaxAge
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bridge{maxAge: maxAge, now: time.Now, logger: logger}
}

// WithClock returns a copy of the bridge using the given time source.
func (b *Bridge) WithClock(now func() time.Time) *Bridge {
	cp := *b
	cp.now = now
	return &cp
}

// Bind attaches the caller-supplied identity to the session, replacing any
// previous binding. Payloads without a patient id are ignored and false is
// returned. Tokens are not verified here.
func (b *Bridge) Bind(sess *Session, data *SessionData) bool {
	if sess == nil || data == nil || data.Patient == nil {
		return false
	}
	profile := *data.Patient
	id := profile.Identifier()
	if id == "" {
		b.logger.Warn("external session rejected: missing patient id", "user_id", sess.UserID)
		return false
	}
	profile.PatientID = healthapi.FlexString(id)

	authType := strings.TrimSpace(data.AuthType)
	if authType == "" {
		authType = "session"
	}
	token := strings.TrimSpace(data.Token)
	if token == "" {
		token = strings.TrimSpace(data.SessionToken)
	}

	sess.Binding = &Binding{
		Kind:     identity.KindPatient,
		Patient:  &profile,
		Token:    token,
		Cookies:  append([]string(nil), data.Cookies...),
		AuthType: authType,
		BoundAt:  b.now(),
	}
	sess.HasExternalSession = true
	return true
}

// BindAuth attaches an identity obtained through sign-in.
func (b *Bridge) BindAuth(sess *Session, res *healthapi.AuthResult) bool {
	if sess == nil || res == nil {
		return false
	}
	binding := &Binding{
		Cookies:  append([]string(nil), res.Cookies...),
		AuthType: "internal",
		BoundAt:  b.now(),
	}
	switch {
	case res.Patient != nil && res.Patient.Identifier() != "":
		p := *res.Patient
		p.PatientID = healthapi.FlexString(p.Identifier())
		binding.Kind = identity.KindPatient
		binding.Patient = &p
	case res.Doctor != nil && res.Doctor.DoctorID != "":
		d := *res.Doctor
		binding.Kind = identity.KindDoctor
		binding.Doctor = &d
	default:
		return false
	}
	sess.Binding = binding
	sess.HasExternalSession = false
	return true
}

// IsValid reports whether the session has a binding younger than maxAge.
func (b *Bridge) IsValid(sess *Session) bool {
	if sess == nil || sess.Binding == nil || sess.Binding.SubjectID() == "" {
		return false
	}
	return b.now().Sub(sess.Binding.BoundAt) < b.maxAge
}

// Age returns how long ago the binding was made.
func (b *Bridge) Age(sess *Session) time.Duration {
	if sess == nil || sess.Binding == nil {
		return 0
	}
	return b.now().Sub(sess.Binding.BoundAt)
}

// Clear removes the binding.
func (b *Bridge) Clear(sess *Session) {
	if sess == nil {
		return
	}
	sess.Binding = nil
	sess.HasExternalSession = false
}

// Identity converts a valid binding into a request identity.
func (b *Bridge) Identity(sess *Session) (identity.Identity, bool) {
	if !b.IsValid(sess) {
		return identity.Identity{}, false
	}
	bd := sess.Binding
	return identity.Identity{
		Kind:    bd.Kind,
		ID:      bd.SubjectID(),
		Name:    bd.DisplayName(),
		Token:   bd.Token,
		Cookies: append([]string(nil), bd.Cookies...),
	}, true
}
