package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLKey узел YAML документа. Вложенные mapping узлы являются подключами,
// скалярные значения являются значениями; тег !!str соответствует string,
// !!int соответствует dword, остальные типы не поддерживаются.
//
//	SYSTEM:
//	  CurrentControlSet:
//	    Services:
//	      NtpService:
//	        Parameters:
//	          Server: pool.ntp.org
//	          Port: 123
type YAMLKey struct {
	node *yaml.Node
}

// LoadYAMLFile читает дерево параметров из файла.
func LoadYAMLFile(path string) (*YAMLKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	k, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parse parameters %s: %w", path, err)
	}
	return k, nil
}

// ParseYAML разбирает документ; пустой документ даёт узел без значений.
func ParseYAML(data []byte) (*YAMLKey, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return &YAMLKey{node: &yaml.Node{Kind: yaml.MappingNode}}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("root must be a mapping, got %s", kindName(root.Kind))
	}
	return &YAMLKey{node: root}, nil
}

// child значение по имени ключа в mapping узле.
func (k *YAMLKey) child(name string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(k.node.Content); i += 2 {
		if k.node.Content[i].Value == name {
			return resolveAlias(k.node.Content[i+1]), true
		}
	}
	return nil, false
}

func (k *YAMLKey) OpenSubKey(name string) (Key, bool) {
	n, ok := k.child(name)
	if !ok || n.Kind != yaml.MappingNode {
		return nil, false
	}
	return &YAMLKey{node: n}, true
}

func (k *YAMLKey) GetValueNames() []string {
	var names []string
	for i := 0; i+1 < len(k.node.Content); i += 2 {
		if resolveAlias(k.node.Content[i+1]).Kind != yaml.MappingNode {
			names = append(names, k.node.Content[i].Value)
		}
	}
	return names
}

func (k *YAMLKey) GetValue(name string) interface{} {
	n, ok := k.child(name)
	if !ok || n.Kind == yaml.MappingNode {
		return nil
	}
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil
	}
	return v
}

func (k *YAMLKey) GetValueKind(name string) ValueKind {
	n, ok := k.child(name)
	if !ok {
		return KindUnknown
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return KindString
		case "!!int":
			return KindDWord
		case "!!binary":
			return KindBinary
		}
	case yaml.SequenceNode:
		return KindMultiString
	}
	return KindUnknown
}

func (k *YAMLKey) Close() error {
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "empty"
}
