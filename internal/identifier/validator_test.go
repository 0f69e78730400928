package identifier

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psup-auth/internal/settings"
)

// fakeFinder records identifiers per session for psup principals.
type fakeFinder struct {
	taken map[string]string // session + "/" + psupid -> user id
	err   error
	calls int
}

func (f *fakeFinder) FindUserIDByPsupID(ctx context.Context, auth, psupID, session string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if auth != "psup" {
		return "", nil
	}
	return f.taken[session+"/"+psupID], nil
}

func defaultSettings() settings.Settings {
	return settings.Settings{IdentifierPattern: settings.DefaultIdentifierPattern, CurrentSession: "2025"}
}

func TestValidate_DefaultPatternAcceptsSixToEightDigits(t *testing.T) {
	v := NewValidator(&fakeFinder{})
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		n := 6 + rng.Intn(3)
		b := make([]byte, n)
		for j := range b {
			b[j] = byte('0' + rng.Intn(10))
		}
		require.NoError(t, v.Validate(context.Background(), defaultSettings(), string(b)), string(b))
	}
}

func TestValidate_DefaultPatternRejectsOtherShapes(t *testing.T) {
	v := NewValidator(&fakeFinder{})
	shape := regexp.MustCompile(`^[0-9]{6,8}$`)
	rng := rand.New(rand.NewSource(2))
	alphabet := []rune("0123456789abcXYZ _-.@\n\té")

	cases := []string{"", "12345", "123456789", "1234567a", " 1234567", "1234567 ", "12345678\n", "١٢٣٤٥٦٧"}
	for i := 0; i < 500; i++ {
		n := rng.Intn(11)
		r := make([]rune, n)
		for j := range r {
			r[j] = alphabet[rng.Intn(len(alphabet))]
		}
		cases = append(cases, string(r))
	}
	for _, c := range cases {
		if shape.MatchString(c) {
			continue
		}
		err := v.Validate(context.Background(), defaultSettings(), c)
		require.Error(t, err, "%q", c)
		assert.True(t, errors.Is(err, ErrPatternMismatch), "%q: %v", c, err)
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, FieldPsupID, fe.Field)
	}
}

func TestValidate_DuplicateInCurrentSession(t *testing.T) {
	f := &fakeFinder{taken: map[string]string{}}
	v := NewValidator(f)
	s := defaultSettings()

	require.NoError(t, v.Validate(context.Background(), s, "12345678"))
	f.taken["2025/12345678"] = "u1"

	err := v.Validate(context.Background(), s, "12345678")
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	s.CurrentSession = "2026"
	assert.NoError(t, v.Validate(context.Background(), s, "12345678"), "identifiers may repeat across sessions")
}

func TestValidate_DuplicateCheckedBeforePattern(t *testing.T) {
	f := &fakeFinder{taken: map[string]string{"2025/abc": "u1"}}
	err := NewValidator(f).Validate(context.Background(), defaultSettings(), "abc")
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestValidate_EmptyPatternStillChecksUsername(t *testing.T) {
	v := NewValidator(&fakeFinder{})
	s := settings.Settings{CurrentSession: "2025"}

	assert.NoError(t, v.Validate(context.Background(), s, "jean.dupont@lycee-42"))
	assert.ErrorIs(t, v.Validate(context.Background(), s, "Jean"), ErrPatternMismatch)
	assert.ErrorIs(t, v.Validate(context.Background(), s, "a b"), ErrPatternMismatch)
	assert.ErrorIs(t, v.Validate(context.Background(), s, "a/b"), ErrPatternMismatch)
}

func TestValidate_InvalidPatternIsConfigError(t *testing.T) {
	s := defaultSettings()
	s.IdentifierPattern = "/[0-9/"
	err := NewValidator(&fakeFinder{}).Validate(context.Background(), s, "123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.NotErrorIs(t, err, ErrPatternMismatch)
}

func TestValidate_LookupError(t *testing.T) {
	boom := errors.New("db down")
	err := NewValidator(&fakeFinder{err: boom}).Validate(context.Background(), defaultSettings(), "123456")
	assert.ErrorIs(t, err, boom)
	var fe *FieldError
	assert.False(t, errors.As(err, &fe))
}

func TestIsValidIdentifier_PatternForms(t *testing.T) {
	cases := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"/^[0-9]{6,8}$/", "1234567", true},
		{"^[0-9]{6,8}$", "1234567", true},
		{"#^[0-9]{6,8}$#", "12345", false},
		{"/^[a-z]+[0-9]+$/i", "abc123", true},
		{"/^[A-Z]+[0-9]+$/i", "abc123", true},
		{"/^[A-Z]+$/", "abc", false},
		{"/^.*$/", "anything.goes", true},
		{"/^.*$/", "But Not Uppercase", false},
		{"/[0-9]/", "abc1", true},
		{"/^[0-9]+$/u", "123", true},
	}
	for _, tc := range cases {
		got, err := IsValidIdentifier(tc.pattern, tc.value)
		require.NoError(t, err, tc.pattern)
		assert.Equal(t, tc.want, got, "%s ~ %q", tc.pattern, tc.value)
	}
}

func TestCompilePattern_Errors(t *testing.T) {
	for _, p := range []string{"/abc/x", "/abc/e", "(unclosed", "/[/"} {
		_, err := CompilePattern(p)
		assert.ErrorIs(t, err, ErrInvalidPattern, p)
	}
}

func TestCompilePattern_Cached(t *testing.T) {
	a, err := CompilePattern("/^cache-" + strconv.Itoa(42) + "$/")
	require.NoError(t, err)
	b, err := CompilePattern("/^cache-42$/")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "jean.dupont", SanitizeUsername("  Jean.Dupont "))
	assert.Equal(t, "ab", SanitizeUsername("a b"))
	assert.Equal(t, "a-b_c@d.e", SanitizeUsername("a-b_c@d.e"))
	assert.Equal(t, "ae", SanitizeUsername("aé"))
	assert.True(t, IsSafeUsername("12345678"))
	assert.False(t, IsSafeUsername("12345678 "))
}
