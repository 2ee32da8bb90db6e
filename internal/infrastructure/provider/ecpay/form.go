package ecpay

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
)

var autoSubmitTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<body>
<form id="checkout" method="post" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
</form>
<script>document.getElementById("checkout").submit();</script>
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

// RenderAutoSubmitForm renders form as a page that posts itself to the gateway.
func RenderAutoSubmitForm(form *provider.CheckoutForm) (string, error) {
	names := make([]string, 0, len(form.Fields))
	for name := range form.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]formField, 0, len(names))
	for _, name := range names {
		fields = append(fields, formField{Name: name, Value: form.Fields[name]})
	}

	var buf bytes.Buffer
	err := autoSubmitTemplate.Execute(&buf, struct {
		Action string
		Fields []formField
	}{Action: form.Action, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("failed to render checkout form: %w", err)
	}
	return buf.String(), nil
}
