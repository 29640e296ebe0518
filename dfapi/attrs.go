package dfapi

import (
	"strings"
)

// MatchAttr reports whether any attr in attrs satisfies the predicate.
// Attrs are either bare names ("published") or name=value pairs
// ("loc=europe").  Predicate forms:
//
//	"name"        matches the bare attr "name"
//	"name=value"  matches the attr "name=value" exactly
//	"name=*"      matches any attr named "name", with or without a value
func MatchAttr(predicate string, attrs []string) bool {
	name, value, hasValue := strings.Cut(predicate, "=")
	for _, attr := range attrs {
		attrName, _, attrHasValue := strings.Cut(attr, "=")
		switch {
		case !hasValue:
			if !attrHasValue && attrName == name {
				return true
			}
		case value == "*":
			if attrName == name {
				return true
			}
		default:
			if attr == predicate {
				return true
			}
		}
	}
	return false
}
