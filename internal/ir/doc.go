// Package ir provides the record value model for storefront.
//
// Every record held by a store is an IRObject whose fields are drawn from the
// sealed IRValue family. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - money and prices are IRNumber (exact decimal)
//   - JSON integers decode to IRInt, all other JSON numbers to IRNumber
//   - Objects marshal with sorted keys so responses and golden traces are stable
package ir
