package service

import "errors"

// Ошибки входа через внешнего провайдера. Обработчик превращает любую из них в редирект на /login.
var (
	ErrAuthDisabled     = errors.New("auth_disabled")
	ErrProviderExchange = errors.New("provider_exchange_failed")
	ErrNoUser           = errors.New("no_user")
	ErrStateMismatch    = errors.New("oauth_state_mismatch")
)
