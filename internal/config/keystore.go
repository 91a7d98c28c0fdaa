package config

// ValueKind объявленный тип значения в хранилище параметров.
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindString
	KindDWord
	KindQWord
	KindBinary
	KindMultiString
)

// String метка типа для диагностики загрузчика.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDWord:
		return "dword"
	default:
		return "<unsupported>"
	}
}

// Key узел иерархического хранилища параметров (реестр, YAML дерево).
// Хранилище принадлежит вызывающему и только читается.
type Key interface {
	// OpenSubKey открывает дочерний узел; false, если его нет.
	OpenSubKey(name string) (Key, bool)
	// GetValueNames имена значений узла в порядке хранилища.
	GetValueNames() []string
	// GetValue сырое значение; nil, если его нет.
	GetValue(name string) interface{}
	// GetValueKind объявленный тип значения.
	GetValueKind(name string) ValueKind
	// Close освобождает узел.
	Close() error
}

// emptyKey узел без значений и дочерних узлов.
type emptyKey struct{}

// EmptyKey хранилище, в котором нет ни одного узла.
func EmptyKey() Key {
	return emptyKey{}
}

func (emptyKey) OpenSubKey(string) (Key, bool) { return nil, false }
func (emptyKey) GetValueNames() []string       { return nil }
func (emptyKey) GetValue(string) interface{}   { return nil }
func (emptyKey) GetValueKind(string) ValueKind { return KindUnknown }
func (emptyKey) Close() error                  { return nil }
