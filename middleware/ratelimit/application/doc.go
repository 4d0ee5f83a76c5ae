// Package application contém as regras do rate limit (Service.Decide) e da
// concorrência (ConcurrencyService.Acquire), sem net/http.
package application
