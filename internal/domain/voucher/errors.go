package voucher

import "errors"

var (
	ErrVoucherNotFound   = errors.New("voucher not found")
	ErrVoucherInactive   = errors.New("voucher is not active")
	ErrVoucherNotStarted = errors.New("voucher is not valid yet")
	ErrVoucherExpired    = errors.New("voucher has expired")
	ErrMinOrderNotMet    = errors.New("order amount is below the voucher minimum")
	ErrDuplicateCode     = errors.New("voucher code already exists")
	ErrInvalidVoucher    = errors.New("invalid voucher")
)
