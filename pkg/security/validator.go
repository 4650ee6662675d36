package security

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// MaxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
const MaxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ValidateIdentifier checks that name is a plain SQL identifier (database or
// table name) before it is quoted into a raw statement. Names come from
// configuration and test code only; this is not a gate for end-user input.
func ValidateIdentifier(name string) error {
	if name == "" {
		return errors.New("identifier is empty")
	}
	if len(name) > MaxIdentifierLength {
		return errors.New("identifier too long")
	}
	if !identifierPattern.MatchString(name) {
		return errors.New("identifier contains invalid characters")
	}
	return nil
}

// EscapeLike escapes LIKE wildcards so value is matched literally.
// Use with ESCAPE '\'.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// MaskURL hides the password of a connection URL for logging.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
