// Package printing renders POS sales as fixed-width text receipts.
//
// Amounts are formatted for the configured locale and currency using
// golang.org/x/text, so a de-DE/EUR store prints "1.234,50" where an
// en-US/USD store prints "1,234.50". The scale of each currency follows
// ISO 4217 (JPY prints no minor units).
package printing
