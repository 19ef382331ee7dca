package dispatch

import (
	"fmt"
	"strings"
)

// binding is one resolved keymap entry: exactly one of builtin or
// template is set.
type binding struct {
	sequence string
	builtin  Builtin
	template *Template
}

type trieNode struct {
	children map[string]*trieNode
	binding  *binding
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// Keymap is the compiled binding trie. Sequences are resolved token by
// token, so "gg" and "gt" can coexist while "g" alone stays pending.
// A binding resolves the moment its node is reached, which makes a
// bound sequence that prefixes a longer one unreachable; Compile
// rejects such shadowed entries instead of guessing with timers.
type Keymap struct {
	root *trieNode
}

// SplitSequence breaks a binding sequence into key tokens. A bracketed
// group like "<c-r>" is one token; every other rune is a token of its
// own.
func SplitSequence(seq string) ([]string, error) {
	if seq == "" {
		return nil, fmt.Errorf("empty sequence")
	}
	var tokens []string
	runes := []rune(seq)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '<' {
			tokens = append(tokens, string(r))
			continue
		}
		end := -1
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '>' {
				end = j
				break
			}
		}
		if end < 0 || end == i+1 {
			return nil, fmt.Errorf("unterminated key group in %q", seq)
		}
		tokens = append(tokens, strings.ToLower(string(runes[i:end+1])))
		i = end
	}
	return tokens, nil
}

// Compile builds the trie from sequence→action pairs layered over the
// defaults. Bad entries are collected and skipped, never fatal: a typo
// in one binding must not take the whole keymap down. Binding a
// sequence to the empty string removes the default for it.
func Compile(overrides map[string]string) (*Keymap, []error) {
	merged := DefaultBindings()
	for seq, action := range overrides {
		if action == "" {
			delete(merged, seq)
			continue
		}
		merged[seq] = action
	}

	km := &Keymap{root: newTrieNode()}
	var errs []error
	for seq, action := range merged {
		if err := km.add(seq, action); err != nil {
			errs = append(errs, err)
		}
	}
	if shadowErrs := km.pruneShadowed(); len(shadowErrs) > 0 {
		errs = append(errs, shadowErrs...)
	}
	return km, errs
}

func (km *Keymap) add(seq, action string) error {
	tokens, err := SplitSequence(seq)
	if err != nil {
		return err
	}
	if first := tokens[0]; len(first) == 1 && first[0] >= '0' && first[0] <= '9' {
		return fmt.Errorf("sequence %q starts with a digit, reserved for counts", seq)
	}

	b := &binding{sequence: seq}
	if t, ok := ParseTemplate(action); ok {
		b.template = &t
	} else if builtin, ok := ParseBuiltin(action); ok {
		b.builtin = builtin
	} else {
		return fmt.Errorf("sequence %q bound to unknown action %q", seq, action)
	}

	node := km.root
	for _, tok := range tokens {
		child, ok := node.children[tok]
		if !ok {
			child = newTrieNode()
			node.children[tok] = child
		}
		node = child
	}
	if node.binding != nil {
		return fmt.Errorf("sequence %q bound twice", seq)
	}
	node.binding = b
	return nil
}

// pruneShadowed drops bindings that can never fire because a shorter
// bound sequence resolves first, and trims the dead subtrees.
func (km *Keymap) pruneShadowed() []error {
	var errs []error
	var collect func(n *trieNode, shadow string)
	collect = func(n *trieNode, shadow string) {
		for _, child := range n.children {
			if child.binding != nil {
				errs = append(errs, fmt.Errorf(
					"sequence %q unreachable, shadowed by shorter binding %q",
					child.binding.sequence, shadow))
			}
			collect(child, shadow)
		}
	}
	var walk func(n *trieNode)
	walk = func(n *trieNode) {
		for _, child := range n.children {
			if child.binding != nil && len(child.children) > 0 {
				collect(child, child.binding.sequence)
				child.children = make(map[string]*trieNode)
				continue
			}
			walk(child)
		}
	}
	walk(km.root)
	return errs
}

// DefaultBindings is the built-in keymap, vi-flavored like the rest of
// this tool class. Config entries override or extend it.
func DefaultBindings() map[string]string {
	return map[string]string{
		"j":           "down",
		"<down>":      "down",
		"k":           "up",
		"<up>":        "up",
		"h":           "parent",
		"<left>":      "parent",
		"l":           "enter",
		"<right>":     "enter",
		"<enter>":     "enter",
		"<c-d>":       "page-down",
		"<pgdn>":      "page-down",
		"<c-u>":       "page-up",
		"<pgup>":      "page-up",
		"gg":          "top",
		"<home>":      "top",
		"G":           "bottom",
		"<end>":       "bottom",
		"H":           "back",
		"[":           "back",
		"L":           "forward",
		"]":           "forward",
		"~":           "home",
		"<space>":     "select",
		"U":           "clear-selection",
		"sn":          "sort-name",
		"ss":          "sort-size",
		"st":          "sort-time",
		"sr":          "sort-reverse",
		".":           "toggle-hidden",
		"r":           "rescan",
		"y":           "yank",
		"/":           "filter",
		"a":           "rename",
		":":           "command",
		"e":           "!${EDITOR:-vi} %f",
		"P":           "!${PAGER:-less} %f",
		"q":           "quit",
		"<c-c>":       "quit",
		"Q":           "quit-emit",
		"<backspace>": "parent",
	}
}
