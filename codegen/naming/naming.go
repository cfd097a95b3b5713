package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidIdentifier is returned when a name cannot be used as a property or
// type name in both the source and the binary targets.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// escapeMarker introduces a length-prefixed segment in a group type name.
const escapeMarker = '_'

// illegalChars cannot appear in a backticked Kotlin name nor in a JVM
// unqualified name. '"' and '$' would also end or interpolate the string
// literal holding the plugin id.
const illegalChars = ".;[]/<>:`\\\n\r\"$"

// kotlinKeywords are the hard keywords that cannot be used unquoted.
var kotlinKeywords = map[string]struct{}{
	"as": {}, "break": {}, "class": {}, "continue": {}, "do": {}, "else": {},
	"false": {}, "for": {}, "fun": {}, "if": {}, "in": {}, "interface": {},
	"is": {}, "null": {}, "object": {}, "package": {}, "return": {}, "super": {},
	"this": {}, "throw": {}, "true": {}, "try": {}, "typealias": {}, "typeof": {},
	"val": {}, "var": {}, "when": {}, "while": {},
}

// GroupTypeName returns the type name synthesized for the group at path.
//
// Plain segments (a lowercase ASCII letter followed by lowercase letters,
// digits or '-') contribute their capitalized form, so ["java"] yields
// "JavaPluginGroup" for suffix "PluginGroup". Any other segment is written as
// "_<byte length>_<segment>". Because capital letters only ever start plain
// segments and '_' only ever starts escaped ones, the name decodes back to a
// single path.
func GroupTypeName(path []string, suffix string) string {
	var b strings.Builder
	for _, segment := range path {
		if isPlainSegment(segment) {
			b.WriteString(UppercaseFirst(segment))
			continue
		}
		b.WriteRune(escapeMarker)
		b.WriteString(strconv.Itoa(len(segment)))
		b.WriteRune(escapeMarker)
		b.WriteString(segment)
	}
	b.WriteString(suffix)
	return b.String()
}

// UppercaseFirst returns s with its first rune upper-cased.
func UppercaseFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ValidatePropertyName reports whether name can be emitted as an extension
// property. Keywords are allowed since properties are always backticked.
func ValidatePropertyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty property name", ErrInvalidIdentifier)
	}
	if i := strings.IndexAny(name, illegalChars); i >= 0 {
		return fmt.Errorf("%w: property name %q contains %q", ErrInvalidIdentifier, name, name[i])
	}
	return nil
}

// ValidateTypeName reports whether name can be used unquoted as a simple type
// name in import lists and casts.
func ValidateTypeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidIdentifier)
	}
	if _, ok := kotlinKeywords[name]; ok {
		return fmt.Errorf("%w: type name %q is a reserved word", ErrInvalidIdentifier, name)
	}
	for i, r := range name {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		if r == '-' && i > 0 {
			// Synthesized group names keep dashes from plugin ids; they are
			// always backticked in source.
			continue
		}
		return fmt.Errorf("%w: type name %q contains %q", ErrInvalidIdentifier, name, r)
	}
	return nil
}

// SourceNameOfBinaryName converts a JVM binary class name such as
// "org.example.Outer$Inner" into its source form "org.example.Outer.Inner".
func SourceNameOfBinaryName(binaryName string) string {
	return strings.ReplaceAll(binaryName, "$", ".")
}

// InternalNameOf converts a fully-qualified source name into a JVM internal
// name ("org.example.Foo" -> "org/example/Foo").
func InternalNameOf(qualifiedName string) string {
	return strings.ReplaceAll(qualifiedName, ".", "/")
}

// SimpleNameOf returns the last dotted segment of a qualified name.
func SimpleNameOf(qualifiedName string) string {
	if i := strings.LastIndexByte(qualifiedName, '.'); i >= 0 {
		return qualifiedName[i+1:]
	}
	return qualifiedName
}

// SplitPath decodes a name produced by GroupTypeName back into its path. It
// returns false when name was not produced with the given suffix.
func SplitPath(name, suffix string) ([]string, bool) {
	body, ok := strings.CutSuffix(name, suffix)
	if !ok {
		return nil, false
	}
	var path []string
	for len(body) > 0 {
		if body[0] == escapeMarker {
			rest := body[1:]
			n := strings.IndexByte(rest, escapeMarker)
			if n <= 0 {
				return nil, false
			}
			size, err := strconv.Atoi(rest[:n])
			if err != nil || size > len(rest)-n-1 {
				return nil, false
			}
			path = append(path, rest[n+1:n+1+size])
			body = rest[n+1+size:]
			continue
		}
		r, size := utf8.DecodeRuneInString(body)
		if r < 'A' || r > 'Z' {
			return nil, false
		}
		end := size
		for end < len(body) && body[end] != escapeMarker && (body[end] < 'A' || body[end] > 'Z') {
			end++
		}
		path = append(path, string(unicode.ToLower(r))+body[size:end])
		body = body[end:]
	}
	return path, true
}

func isPlainSegment(segment string) bool {
	if segment == "" || segment[0] < 'a' || segment[0] > 'z' {
		return false
	}
	for i := 1; i < len(segment); i++ {
		c := segment[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return false
	}
	return true
}
