package transformer

import (
	"fmt"
	"math/rand"
	"strings"
)

// Small embedded word lists stand in for the fake-data generator the
// original pulls in from the `fake` crate; nothing in the retrieval pack
// wires an equivalent Go library (see transformer.go's package doc), so
// these are plain data plus math/rand.
var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "William", "Elizabeth", "David", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen",
}

var emailDomains = []string{"example.com", "example.org", "example.net", "mail.test"}

func randomFirstName() string {
	return firstNames[rand.Intn(len(firstNames))]
}

func randomEmail() string {
	user := strings.ToLower(randomFirstName())
	return fmt.Sprintf("%s.%d@%s", user, rand.Intn(100000), emailDomains[rand.Intn(len(emailDomains))])
}

const digits = "0123456789"

func randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}

func randomAlphanumeric(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// randomCreditCardNumber produces a synthetic 16-digit PAN grouped in
// fours. It deliberately does not attempt a Luhn-valid number: the
// transformer's only contract is "replace with a synthetic card number"
// (spec.md §4.3), not "produce a card number a payment processor would
// accept".
func randomCreditCardNumber() string {
	groups := make([]string, 4)
	for i := range groups {
		groups[i] = randomDigits(4)
	}
	return strings.Join(groups, " ")
}
