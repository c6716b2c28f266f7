package model

import "strings"

// RefKind — вид ссылки на предмет.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefStatic
	RefRolled
)

// RolledPrefix — префикс строкового представления rolled instance.
// Используется только на границах (БД, CLI, логи).
const RolledPrefix = "ri_"

// ItemRef ссылается либо на статический base item из каталога,
// либо на rolled instance из реестра.
//
// ID всегда хранится в lower case, поэтому ItemRef можно сравнивать через ==
// и использовать как ключ map.
type ItemRef struct {
	kind RefKind
	id   string
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// StaticRef создаёт ссылку на base item. Пустой id → нулевая ссылка.
func StaticRef(id string) ItemRef {
	id = normalizeID(id)
	if id == "" {
		return ItemRef{}
	}
	return ItemRef{kind: RefStatic, id: id}
}

// RolledRef создаёт ссылку на rolled instance. Пустой id → нулевая ссылка.
func RolledRef(id string) ItemRef {
	id = normalizeID(id)
	if id == "" {
		return ItemRef{}
	}
	return ItemRef{kind: RefRolled, id: id}
}

// ParseItemRef разбирает строковую форму: "ri_<id>" → Rolled, иначе Static.
func ParseItemRef(s string) ItemRef {
	s = normalizeID(s)
	if rest, ok := strings.CutPrefix(s, RolledPrefix); ok {
		return RolledRef(rest)
	}
	return StaticRef(s)
}

func (r ItemRef) Kind() RefKind  { return r.kind }
func (r ItemRef) ID() string     { return r.id }
func (r ItemRef) IsZero() bool   { return r.kind == RefNone }
func (r ItemRef) IsRolled() bool { return r.kind == RefRolled }
func (r ItemRef) IsStatic() bool { return r.kind == RefStatic }

// String возвращает строковую форму (обратную ParseItemRef).
func (r ItemRef) String() string {
	switch r.kind {
	case RefStatic:
		return r.id
	case RefRolled:
		return RolledPrefix + r.id
	default:
		return ""
	}
}

func (r ItemRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ItemRef) UnmarshalText(text []byte) error {
	*r = ParseItemRef(string(text))
	return nil
}

// CompareRefs сравнивает ссылки по строковой форме (ordinal, case-insensitive).
func CompareRefs(a, b ItemRef) int {
	return strings.Compare(a.String(), b.String())
}
