package model

import (
	"fmt"
	"strings"
)

// EquipmentSlot — слот экипировки персонажа.
type EquipmentSlot int32

const (
	SlotNone EquipmentSlot = iota
	SlotHelm
	SlotChest
	SlotLegs
	SlotBelt
	SlotGloves
	SlotBoots
	SlotCape
	SlotAmmo
	SlotLeftHand
	SlotRightHand
	SlotRing1
	SlotRing2
	SlotAmulet
	SlotArtifact

	// SlotCount — размер массива слотов (включая SlotNone под индексом 0).
	SlotCount
)

// EquipSlots — все реальные слоты в порядке обхода.
var EquipSlots = [...]EquipmentSlot{
	SlotHelm, SlotChest, SlotLegs, SlotBelt, SlotGloves, SlotBoots, SlotCape,
	SlotAmmo, SlotLeftHand, SlotRightHand, SlotRing1, SlotRing2, SlotAmulet, SlotArtifact,
}

var slotNames = [SlotCount]string{
	SlotNone:      "None",
	SlotHelm:      "Helm",
	SlotChest:     "Chest",
	SlotLegs:      "Legs",
	SlotBelt:      "Belt",
	SlotGloves:    "Gloves",
	SlotBoots:     "Boots",
	SlotCape:      "Cape",
	SlotAmmo:      "Ammo",
	SlotLeftHand:  "LeftHand",
	SlotRightHand: "RightHand",
	SlotRing1:     "Ring1",
	SlotRing2:     "Ring2",
	SlotAmulet:    "Amulet",
	SlotArtifact:  "Artifact",
}

func (s EquipmentSlot) String() string {
	if s < 0 || s >= SlotCount {
		return fmt.Sprintf("EquipmentSlot(%d)", int32(s))
	}
	return slotNames[s]
}

// Valid reports whether s is a real equipment slot (not None, in range).
func (s EquipmentSlot) Valid() bool {
	return s > SlotNone && s < SlotCount
}

// IsHand reports whether s is LeftHand or RightHand.
func (s EquipmentSlot) IsHand() bool {
	return s == SlotLeftHand || s == SlotRightHand
}

// IsRing reports whether s is Ring1 or Ring2.
func (s EquipmentSlot) IsRing() bool {
	return s == SlotRing1 || s == SlotRing2
}

// Other возвращает парный слот для рук и колец, иначе SlotNone.
func (s EquipmentSlot) Other() EquipmentSlot {
	switch s {
	case SlotLeftHand:
		return SlotRightHand
	case SlotRightHand:
		return SlotLeftHand
	case SlotRing1:
		return SlotRing2
	case SlotRing2:
		return SlotRing1
	default:
		return SlotNone
	}
}

// ParseEquipmentSlot парсит имя слота (case-insensitive).
// "Weapon"/"MainHand" → RightHand, "Offhand"/"Shield" → LeftHand, "Ring" → Ring1.
func ParseEquipmentSlot(name string) (EquipmentSlot, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return SlotNone, nil
	}
	for i, n := range slotNames {
		if strings.ToLower(n) == key {
			return EquipmentSlot(i), nil
		}
	}
	switch key {
	case "weapon", "mainhand", "main_hand", "right_hand":
		return SlotRightHand, nil
	case "offhand", "off_hand", "shield", "left_hand":
		return SlotLeftHand, nil
	case "ring":
		return SlotRing1, nil
	case "head", "helmet":
		return SlotHelm, nil
	case "feet":
		return SlotBoots, nil
	case "neck", "necklace":
		return SlotAmulet, nil
	case "cloak":
		return SlotCape, nil
	}
	return SlotNone, fmt.Errorf("unknown equipment slot %q", name)
}

func (s *EquipmentSlot) UnmarshalText(text []byte) error {
	v, err := ParseEquipmentSlot(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s EquipmentSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Handedness — как оружие занимает руки.
type Handedness int32

const (
	HandednessNone Handedness = iota
	OneHanded
	TwoHanded
	Offhand
)

func (h Handedness) String() string {
	switch h {
	case OneHanded:
		return "OneHanded"
	case TwoHanded:
		return "TwoHanded"
	case Offhand:
		return "Offhand"
	default:
		return "None"
	}
}

// ParseHandedness парсит handedness (case-insensitive, пустая строка → None).
func ParseHandedness(name string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return HandednessNone, nil
	case "onehanded", "one_handed", "1h":
		return OneHanded, nil
	case "twohanded", "two_handed", "2h":
		return TwoHanded, nil
	case "offhand", "off_hand":
		return Offhand, nil
	}
	return HandednessNone, fmt.Errorf("unknown handedness %q", name)
}

func (h *Handedness) UnmarshalText(text []byte) error {
	v, err := ParseHandedness(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func (h Handedness) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
