package users

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Validation runs before any repository call, so a nil repository is enough
// for the rejection paths.
func doRegister(handler *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Register(rec, req)
	return rec
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	handler := NewHandler(nil, nil)

	cases := map[string]string{
		"not json":           `{not json`,
		"unknown field":      `{"username":"alice","password":"longenough","email":"a@b.se","bogus":1}`,
		"short username":     `{"username":"ab","password":"longenough","email":"a@b.se"}`,
		"uppercase kept out": `{"username":"al ice","password":"longenough","email":"a@b.se"}`,
		"bad characters":     `{"username":"alice!","password":"longenough","email":"a@b.se"}`,
		"short password":     `{"username":"alice","password":"short","email":"a@b.se"}`,
		"long password":      `{"username":"alice","password":"` + strings.Repeat("x", 201) + `","email":"a@b.se"}`,
		"missing email":      `{"username":"alice","password":"longenough"}`,
		"email without at":   `{"username":"alice","password":"longenough","email":"not-an-email"}`,
		"long full name":     `{"username":"alice","password":"longenough","email":"a@b.se","full_name":"` + strings.Repeat("x", 101) + `"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doRegister(handler, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUsernameFormat(t *testing.T) {
	for _, valid := range []string{"alice", "bob_2", "a.b-c", "abc"} {
		assert.True(t, usernameRegex.MatchString(valid), "username %q", valid)
	}
	for _, invalid := range []string{"ab", "Alice", "al ice", "alice!", strings.Repeat("a", 33)} {
		assert.False(t, usernameRegex.MatchString(invalid), "username %q", invalid)
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := defaultSettings()

	assert.True(t, settings.Notifications.EmailEnabled)
	assert.Equal(t, "light", settings.Display.Theme)
	assert.Equal(t, "en", settings.Display.Language)
}
