package sas

import (
	"math"
	"strings"
	"time"
)

// slotCharset orders the characters a payload may contain. A character's
// position (plus one) contributes one digit of the base-40 fraction that
// spreads names across the slots of a category.
const slotCharset = " 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_-."

// maxPayloadChars caps how many payload characters contribute to the slot
const maxPayloadChars = 128

// baseTimestamp returns the anchor all planned times are subtracted from:
// 2098-12-31 23:59:59 in the local zone, converted to UTC.
func baseTimestamp() time.Time {
	return time.Date(2098, time.December, 31, 23, 59, 59, 0, time.Local).UTC()
}

// Plan computes the deterministic timestamp for a folder name. For fixed
// rules and a fixed local zone the result is a function of the name alone.
// The returned time is in the local zone, with an even second and no
// sub-second component. The second return value is false when the rules
// table claims no category for the name (no DEFAULT category present).
func Plan(name string, rules *TimestampRules) (time.Time, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	effective := resolveAliases(upper, rules)

	index, category, found := findCategory(effective, rules)
	if !found {
		return time.Time{}, false
	}

	payload := categoryPayload(effective, category)
	slot := payloadSlot(payload, rules.SlotsPerCategory)

	offset := index*rules.SecondsBetweenItems*rules.SlotsPerCategory +
		slot*rules.SecondsBetweenItems
	planned := baseTimestamp().Add(-time.Duration(offset) * time.Second)

	// Snap to an even second in UTC before converting back
	planned = planned.Truncate(time.Second)
	if planned.Second()%2 == 1 {
		planned = planned.Add(time.Second)
	}
	return planned.In(time.Local), true
}

// resolveAliases rewrites a name that literally equals a declared alias into
// its category's effective form: key+name for ordinary categories, "APPS"
// for the APPS category, and the name itself for DEFAULT.
func resolveAliases(upper string, rules *TimestampRules) string {
	for _, category := range rules.Categories {
		for _, alias := range category.Aliases {
			if upper != strings.ToUpper(alias) {
				continue
			}
			switch category.Key {
			case CategoryAPPS:
				return CategoryAPPS
			case CategoryDefault:
				return upper
			default:
				return category.Key + upper
			}
		}
	}
	return upper
}

// findCategory locates the category claiming an effective name: the first
// ordinary key that literally prefixes the name, the APPS category for the
// exact name "APPS", and DEFAULT only as a fallback.
func findCategory(effective string, rules *TimestampRules) (int, *Category, bool) {
	defaultIndex := -1
	for i := range rules.Categories {
		category := &rules.Categories[i]
		switch category.Key {
		case CategoryAPPS:
			if effective == CategoryAPPS {
				return i, category, true
			}
		case CategoryDefault:
			defaultIndex = i
		default:
			if strings.HasPrefix(effective, category.Key) {
				return i, category, true
			}
		}
	}
	if defaultIndex >= 0 {
		return defaultIndex, &rules.Categories[defaultIndex], true
	}
	return 0, nil, false
}

// categoryPayload strips the category prefix and hyphens from an effective
// name. The APPS category uses "APPS" verbatim.
func categoryPayload(effective string, category *Category) string {
	switch category.Key {
	case CategoryAPPS:
		return CategoryAPPS
	case CategoryDefault:
		return strings.ReplaceAll(effective, "-", "")
	default:
		return strings.ReplaceAll(strings.TrimPrefix(effective, category.Key), "-", "")
	}
}

// payloadSlot maps a payload string onto [0, slots) by accumulating a base-40
// fraction over the first characters: Σ (charsetIndex+1) / base^(position+1).
// Characters outside the charset contribute index len(charset).
func payloadSlot(payload string, slots int) int {
	base := float64(len(slotCharset))
	fraction := 0.0
	for i, ch := range []rune(payload) {
		if i >= maxPayloadChars {
			break
		}
		index := strings.IndexRune(slotCharset, ch)
		if index < 0 {
			index = len(slotCharset)
		}
		fraction += float64(index+1) / math.Pow(base, float64(i+1))
	}

	slot := int(math.Floor(fraction * float64(slots)))
	if slot >= slots {
		slot = slots - 1
	}
	if slot < 0 {
		slot = 0
	}
	return slot
}
