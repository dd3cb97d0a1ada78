package prompt

import "github.com/manifoldco/promptui"

// SelectOption is one entry in a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

func selectTemplates() *promptui.SelectTemplates {
	return &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
}

// Select prompts the user to pick from options, returning the chosen Value.
func Select(label string, options []SelectOption) (string, error) {
	p := promptui.Select{Label: label, Items: options, Templates: selectTemplates(), Size: 10}
	i, _, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}

// SelectString prompts the user to pick from a list of plain strings.
func SelectString(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items, Size: 10}
	_, result, err := p.Run()
	return result, wrapError(err)
}

// SelectIndex prompts the user to pick from options, returning its index.
func SelectIndex(label string, options []SelectOption) (int, error) {
	p := promptui.Select{Label: label, Items: options, Templates: selectTemplates(), Size: 10}
	i, _, err := p.Run()
	return i, wrapError(err)
}

// MultiSelect toggles options with repeated single-selects terminated by a
// synthetic "Done" entry; promptui has no native multi-select widget.
func MultiSelect(label string, options []SelectOption) ([]string, error) {
	selected := make(map[string]bool)

	for {
		items := make([]string, 0, len(options)+1)
		for _, opt := range options {
			prefix := "[ ]"
			if selected[opt.Value] {
				prefix = "[x]"
			}
			items = append(items, prefix+" "+opt.Label)
		}
		items = append(items, "Done")

		p := promptui.Select{Label: label, Items: items, Size: len(items)}
		i, _, err := p.Run()
		if err != nil {
			return nil, wrapError(err)
		}
		if i == len(options) {
			break
		}

		opt := options[i]
		selected[opt.Value] = !selected[opt.Value]
	}

	var result []string
	for _, opt := range options {
		if selected[opt.Value] {
			result = append(result, opt.Value)
		}
	}
	return result, nil
}
