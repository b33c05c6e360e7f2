package contact

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fpang/ai-photo-landing/internal/apperr"
	"github.com/fpang/ai-photo-landing/internal/store"
)

type recordingStore struct {
	puts []*store.ContactSubmission
	err  error
}

func (r *recordingStore) PutContact(_ context.Context, c *store.ContactSubmission) (string, error) {
	r.puts = append(r.puts, c)
	if r.err != nil {
		return "", r.err
	}
	c.ID = fmt.Sprintf("id-%d", len(r.puts))
	return c.ID, nil
}

func TestSubmit_Success(t *testing.T) {
	st := &recordingStore{}
	svc := NewService(st)

	id, err := svc.Submit(context.Background(), Request{
		Name:    "  Ada Lovelace ",
		Email:   "ada@example.com\n",
		Message: "Hello there",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	require.Len(t, st.puts, 1)
	got := st.puts[0]
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Hello there", got.Message)
	assert.Equal(t, store.StatusNew, got.Status)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		msg  string
	}{
		{"all empty", Request{}, MsgMissingFields},
		{"missing name", Request{Email: "a@b.co", Message: "hi"}, MsgMissingFields},
		{"missing email", Request{Name: "a", Message: "hi"}, MsgMissingFields},
		{"missing message", Request{Name: "a", Email: "a@b.co"}, MsgMissingFields},
		{"whitespace only message", Request{Name: "a", Email: "a@b.co", Message: "   "}, MsgMissingFields},
		{"no at sign", Request{Name: "a", Email: "not-an-email", Message: "hi"}, MsgInvalidEmail},
		{"short tld", Request{Name: "a", Email: "a@b.c", Message: "hi"}, MsgInvalidEmail},
		{"space inside", Request{Name: "a", Email: "a b@c.com", Message: "hi"}, MsgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &recordingStore{}
			_, err := NewService(st).Submit(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.Empty(t, st.puts, "invalid submissions must not be stored")
		})
	}
}

func TestSubmit_NotProvisioned(t *testing.T) {
	st := &recordingStore{err: fmt.Errorf("put contact x: %w", store.ErrNotProvisioned)}

	_, err := NewService(st).Submit(context.Background(), Request{Name: "a", Email: "a@b.co", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvisioning, apperr.KindOf(err))
	assert.Equal(t, MsgNotProvisioned, err.Error())
	assert.Equal(t, 503, apperr.HTTPStatus(apperr.KindOf(err)))
}

func TestSubmit_StoreFailure(t *testing.T) {
	st := &recordingStore{err: errors.New("network unreachable")}

	_, err := NewService(st).Submit(context.Background(), Request{Name: "a", Email: "a@b.co", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))
	assert.Equal(t, "network unreachable", err.Error())
}

func TestValidEmail(t *testing.T) {
	valid := []string{"ada@example.com", "ADA@EXAMPLE.COM", "first.last+tag@sub.example.co.uk", "a_b%c@x-y.io"}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	invalid := []string{"", "ada", "ada@", "@example.com", "ada@example", "ada@example.c", "ada@@example.com"}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

// Any address built from the allowed alphabets with a 2+ letter TLD is
// accepted; dropping the @ always rejects it.
func TestValidEmailProperty(t *testing.T) {
	local := rapid.StringMatching(`[A-Za-z0-9._%+-]{1,20}`)
	domain := rapid.StringMatching(`[A-Za-z0-9.-]{1,20}`)
	tld := rapid.StringMatching(`[A-Za-z]{2,6}`)

	rapid.Check(t, func(t *rapid.T) {
		l := local.Draw(t, "local")
		d := domain.Draw(t, "domain")
		tl := tld.Draw(t, "tld")

		if !ValidEmail(l + "@" + d + "." + tl) {
			t.Fatalf("expected %q to be valid", l+"@"+d+"."+tl)
		}
		if ValidEmail(l + d + "." + tl) {
			t.Fatalf("expected %q without @ to be invalid", l+d+"."+tl)
		}
	})
}
