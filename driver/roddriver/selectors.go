package roddriver

import (
	"fmt"
	"strings"
)

// textXPath compiles a text expression into XPath. A leading '=' asks
// for a whole-text match on the element's own text nodes; anything else
// is a substring match. Matching text() instead of the subtree keeps a
// button match from also matching every ancestor.
func textXPath(expr string) string {
	if rest, ok := strings.CutPrefix(expr, "="); ok {
		return "//*[normalize-space(text())=" + xpathLiteral(strings.TrimSpace(rest)) + "]"
	}
	return "//*[contains(text(), " + xpathLiteral(expr) + ")]"
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no
// escape syntax inside literals, so a value carrying both quote kinds
// becomes a concat() of single-quoted runs joined by quoted quotes.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}

// implicitRoles maps an ARIA role to the tags that carry it without a
// role attribute. Kept to the roles test automation actually targets.
var implicitRoles = map[string][]string{
	"button":     {"button", "input[type='button']", "input[type='submit']", "input[type='reset']", "summary"},
	"link":       {"a[href]", "area[href]"},
	"textbox":    {"input[type='text']", "input:not([type])", "textarea"},
	"searchbox":  {"input[type='search']"},
	"checkbox":   {"input[type='checkbox']"},
	"radio":      {"input[type='radio']"},
	"combobox":   {"select", "input[list]"},
	"slider":     {"input[type='range']"},
	"heading":    {"h1", "h2", "h3", "h4", "h5", "h6"},
	"img":        {"img"},
	"list":       {"ul", "ol"},
	"listitem":   {"li"},
	"table":      {"table"},
	"row":        {"tr"},
	"cell":       {"td"},
	"navigation": {"nav"},
	"main":       {"main"},
	"form":       {"form"},
	"dialog":     {"dialog"},
}

// roleSelector compiles an ARIA role into a CSS selector group matching
// the explicit role attribute first, then tags implying the role.
func roleSelector(role string) string {
	sels := []string{fmt.Sprintf("[role='%s']", role)}
	sels = append(sels, implicitRoles[role]...)
	return strings.Join(sels, ", ")
}
