package api

import "sync"

// renderedView implements core.View for one HTTP request. Inputs come from the
// request body; everything the controller renders is collected for the response.
type renderedView struct {
	mu     sync.Mutex
	inputs map[string]string
	out    ViewResponse
}

func newRenderedView(inputs map[string]string) *renderedView {
	return &renderedView{
		inputs: inputs,
		out: ViewResponse{
			Panels:       map[string]bool{},
			Fields:       map[string]string{},
			Placeholders: map[string]string{},
			Buttons:      map[string]ButtonState{},
		},
	}
}

func (v *renderedView) FieldValue(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inputs[name]
}

func (v *renderedView) SetFieldValue(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.Fields[name] = value
}

func (v *renderedView) SetPlaceholder(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.Placeholders[name] = value
}

func (v *renderedView) Expand(panels ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range panels {
		v.out.Panels[p] = true
	}
}

func (v *renderedView) Collapse(panels ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range panels {
		v.out.Panels[p] = false
	}
}

func (v *renderedView) SetButton(name, label string, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.Buttons[name] = ButtonState{Label: label, Enabled: enabled}
}

func (v *renderedView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.ErrorMessage = message
}

func (v *renderedView) ShowSuccess(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.SuccessMessage = message
}

func (v *renderedView) Navigate(target string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out.NavigateTo = target
}

func (v *renderedView) response() ViewResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.out
}
