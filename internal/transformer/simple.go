package transformer

import "dbsnap/internal/core"

// FirstNameTransformer replaces a string value with a fake given name.
type FirstNameTransformer struct{ base }

func NewFirstName(database, table, column string) *FirstNameTransformer {
	return &FirstNameTransformer{newBase(database, table, column)}
}

func (t *FirstNameTransformer) ID() string          { return IDFirstName }
func (t *FirstNameTransformer) Description() string { return "Generate a fake first name." }
func (t *FirstNameTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	return core.StringValue(v.Name, randomFirstName())
}

// EmailTransformer replaces a string value with a synthetic email address.
type EmailTransformer struct{ base }

func NewEmail(database, table, column string) *EmailTransformer {
	return &EmailTransformer{newBase(database, table, column)}
}

func (t *EmailTransformer) ID() string          { return IDEmail }
func (t *EmailTransformer) Description() string { return "Generate a fake email address." }
func (t *EmailTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	return core.StringValue(v.Name, randomEmail())
}

// PhoneNumberTransformer replaces a string value with a synthetic phone
// number of default shape (no country-code/length configuration, unlike
// MobileNumberTransformer).
type PhoneNumberTransformer struct{ base }

func NewPhoneNumber(database, table, column string) *PhoneNumberTransformer {
	return &PhoneNumberTransformer{newBase(database, table, column)}
}

func (t *PhoneNumberTransformer) ID() string          { return IDPhoneNumber }
func (t *PhoneNumberTransformer) Description() string { return "Generate a fake phone number." }
func (t *PhoneNumberTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	return core.StringValue(v.Name, randomDigits(10))
}

// CreditCardTransformer replaces a string value with a synthetic card
// number.
type CreditCardTransformer struct{ base }

func NewCreditCard(database, table, column string) *CreditCardTransformer {
	return &CreditCardTransformer{newBase(database, table, column)}
}

func (t *CreditCardTransformer) ID() string          { return IDCreditCard }
func (t *CreditCardTransformer) Description() string { return "Generate a fake credit card number." }
func (t *CreditCardTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	return core.StringValue(v.Name, randomCreditCardNumber())
}

// RandomTransformer replaces a string value with a random string of
// similar shape (same byte length, alphanumeric; an empty string becomes
// 8 characters).
type RandomTransformer struct{ base }

func NewRandom(database, table, column string) *RandomTransformer {
	return &RandomTransformer{newBase(database, table, column)}
}

func (t *RandomTransformer) ID() string          { return IDRandom }
func (t *RandomTransformer) Description() string { return "Generate a random string of similar shape." }
func (t *RandomTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	n := len(v.Str)
	if n == 0 {
		n = 8
	}
	return core.StringValue(v.Name, randomAlphanumeric(n))
}

// KeepFirstCharTransformer preserves the first code point of a string
// value and blanks the rest.
type KeepFirstCharTransformer struct{ base }

func NewKeepFirstChar(database, table, column string) *KeepFirstCharTransformer {
	return &KeepFirstCharTransformer{newBase(database, table, column)}
}

func (t *KeepFirstCharTransformer) ID() string { return IDKeepFirstChar }
func (t *KeepFirstCharTransformer) Description() string {
	return "Keep the first character, blank the rest."
}
func (t *KeepFirstCharTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	runes := []rune(v.Str)
	if len(runes) == 0 {
		return core.StringValue(v.Name, "")
	}
	return core.StringValue(v.Name, string(runes[0]))
}

// RedactedOptions configures RedactedTransformer's fixed-length mask.
type RedactedOptions struct {
	Character string
	Length    int
}

// RedactedOptionsDefault matches the original's derived Default impl
// shape: a conservative, non-zero mask.
func RedactedOptionsDefault() RedactedOptions {
	return RedactedOptions{Character: "*", Length: 8}
}

// RedactedTransformer replaces a string value with a fixed-length mask.
type RedactedTransformer struct {
	base
	options RedactedOptions
}

func NewRedacted(database, table, column string, options RedactedOptions) *RedactedTransformer {
	if options.Character == "" {
		options.Character = "*"
	}
	if options.Length <= 0 {
		options.Length = 8
	}
	return &RedactedTransformer{base: newBase(database, table, column), options: options}
}

func (t *RedactedTransformer) ID() string          { return IDRedacted }
func (t *RedactedTransformer) Description() string { return "Replace with a fixed-length mask." }
func (t *RedactedTransformer) Transform(v core.Value) core.Value {
	if v.Kind != core.KindString {
		return v
	}
	mask := make([]byte, t.options.Length)
	c := t.options.Character[0]
	for i := range mask {
		mask[i] = c
	}
	return core.StringValue(v.Name, string(mask))
}

// BlankTransformer replaces any value with null, regardless of its tag.
type BlankTransformer struct{ base }

func NewBlank(database, table, column string) *BlankTransformer {
	return &BlankTransformer{newBase(database, table, column)}
}

func (t *BlankTransformer) ID() string                       { return IDBlank }
func (t *BlankTransformer) Description() string               { return "Blank/nil the value completely." }
func (t *BlankTransformer) Transform(v core.Value) core.Value { return core.NullValue(v.Name) }

// TransientTransformer is the identity transformer: no-op.
type TransientTransformer struct{ base }

func NewTransient(database, table, column string) *TransientTransformer {
	return &TransientTransformer{newBase(database, table, column)}
}

func (t *TransientTransformer) ID() string                       { return IDTransient }
func (t *TransientTransformer) Description() string              { return "Leave the value unchanged." }
func (t *TransientTransformer) Transform(v core.Value) core.Value { return v }
