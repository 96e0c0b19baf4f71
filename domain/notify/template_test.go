package notify_test

import (
	"formflow/domain/notify"
	"testing"

	. "github.com/onsi/gomega"
)

func TestRender(t *testing.T) {
	RegisterTestingT(t)

	t.Run("replaces known variables and blanks missing ones", func(t *testing.T) {
		vars := notify.Variables{"submitter": "Alice", "form_title": "Expense"}
		Expect(notify.Render("{{submitter}} submitted {{form_title}}", vars)).To(Equal("Alice submitted Expense"))
		Expect(notify.Render("{{ submitter }}/{{nope}}/", vars)).To(Equal("Alice//"))
		Expect(notify.Render("{{submitter}}", nil)).To(Equal(""))
	})

	t.Run("leaves text without placeholders untouched", func(t *testing.T) {
		Expect(notify.Render("", nil)).To(Equal(""))
		Expect(notify.Render("plain {text}", nil)).To(Equal("plain {text}"))
		Expect(notify.Render("{{ }}", nil)).To(Equal("{{ }}"))
	})

	t.Run("formats scalar and composite values", func(t *testing.T) {
		vars := notify.Variables{
			"count":   float64(3),
			"ratio":   0.25,
			"flag":    true,
			"nothing": nil,
			"form_data": map[string]interface{}{
				"items": []interface{}{"a", map[string]interface{}{"name": "b"}},
			},
		}
		Expect(notify.Render("{{count}} {{ratio}} {{flag}} [{{nothing}}]", vars)).To(Equal("3 0.25 true []"))
		Expect(notify.Render("{{form_data.items.1.name}}", vars)).To(Equal("b"))
		Expect(notify.Render("{{form_data.items}}", vars)).To(Equal(`["a",{"name":"b"}]`))
		Expect(notify.Render("{{form_data.items.7}}", vars)).To(Equal(""))
	})
}

func TestLookupPath(t *testing.T) {
	RegisterTestingT(t)

	data := map[string]interface{}{
		"a.b": "flat",
		"a":   map[string]interface{}{"b": "nested", "c": map[string]interface{}{"d": 1}},
		"s":   "scalar",
	}

	v, ok := notify.LookupPath(data, "a.b")
	Expect(ok).To(BeTrue())
	Expect(v).To(Equal("flat"))

	v, ok = notify.LookupPath(data, "a.c.d")
	Expect(ok).To(BeTrue())
	Expect(v).To(Equal(1))

	_, ok = notify.LookupPath(data, "s.x")
	Expect(ok).To(BeFalse())
	_, ok = notify.LookupPath(data, "a.x")
	Expect(ok).To(BeFalse())
	_, ok = notify.LookupPath(nil, "a")
	Expect(ok).To(BeFalse())
	_, ok = notify.LookupPath(data, "")
	Expect(ok).To(BeFalse())
}
