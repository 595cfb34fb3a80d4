// Package findeck provides the valuation core of a personal net-worth
// tracker. Users keep a handful of accounts (bank, cash, crypto) and want to
// see what they are worth, all together, in a single home currency.
//
// The core functionalities include:
//   - Accounts: a minimal AccountStore capability (list, create, update
//     balance, delete) that concrete backends implement (see the localstore,
//     cloudstore and memstore packages).
//   - Prices: a PriceFeed capability fetching live quotes (see the coingecko
//     package), and a PriceCache serving the last known quotes while the
//     network is slow or absent.
//   - Valuation: Valuate, a pure function re-pricing every account into the
//     home currency and deciding which accounts show market data.
//   - Session: the single owner of the current accounts and prices, that
//     recomputes the Portfolio from scratch on every change.
//
// This package serves as the foundational logic for the `findeck`
// command-line tool and its HTTP API.
package findeck
