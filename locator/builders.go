package locator

import (
	"fmt"
	"strings"
)

// CSS declares a structural CSS path candidate.
func CSS(expr, desc string) Candidate {
	return Candidate{Kind: KindCSS, Expr: expr, Desc: desc}
}

// XPath declares a hierarchical XPath candidate.
func XPath(expr, desc string) Candidate {
	return Candidate{Kind: KindXPath, Expr: expr, Desc: desc}
}

// Role declares an ARIA-role candidate. The driver also matches elements
// whose tag implies the role (button, a[href], input).
func Role(role, desc string) Candidate {
	return Candidate{Kind: KindRole, Expr: role, Desc: desc}
}

// TextExact declares a visible-text candidate matching the whole text of
// an element. Text expressions starting with '=' request an exact match;
// anything else is a substring match.
func TextExact(text string) Candidate {
	return Candidate{Kind: KindText, Expr: "=" + text, Desc: fmt.Sprintf("text %q", text)}
}

// TextContains declares a visible-text candidate matching a substring.
func TextContains(text string) Candidate {
	return Candidate{Kind: KindText, Expr: text, Desc: fmt.Sprintf("text contains %q", text)}
}

// TestID declares an attribute candidate on data-testid.
func TestID(value string) Candidate {
	return attr("data-testid", value)
}

// AriaLabel declares an attribute candidate on aria-label.
func AriaLabel(value string) Candidate {
	return attr("aria-label", value)
}

// Name declares an attribute candidate on the name attribute.
func Name(value string) Candidate {
	return attr("name", value)
}

// Placeholder declares an attribute candidate on placeholder.
func Placeholder(value string) Candidate {
	return attr("placeholder", value)
}

// Value declares an attribute candidate on the value attribute.
func Value(value string) Candidate {
	return attr("value", value)
}

// AttrContains declares an attribute candidate matching a substring of
// the named attribute. Healing strategies lean on this form.
func AttrContains(name, value string) Candidate {
	return Candidate{
		Kind: KindAttr,
		Expr: fmt.Sprintf("[%s*='%s']", name, escapeAttr(value)),
		Desc: fmt.Sprintf("%s contains %q", name, value),
	}
}

func attr(name, value string) Candidate {
	return Candidate{
		Kind: KindAttr,
		Expr: fmt.Sprintf("[%s='%s']", name, escapeAttr(value)),
		Desc: fmt.Sprintf("%s %q", name, value),
	}
}

// escapeAttr makes a value safe inside a single-quoted CSS attribute selector.
func escapeAttr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
