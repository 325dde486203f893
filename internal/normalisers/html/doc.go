// Package html provides a Normaliser for HTML documents. Markup, scripts
// and styles are removed and block elements become paragraph breaks.
package html
