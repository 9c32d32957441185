package checker

import (
	"context"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

var errTooManyRedirects = errors.New("too many redirects")

// netErrorCode maps a transport error to the closest net::ERR_* code.
func netErrorCode(err error) domain.NetErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return domain.ErrAborted
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrTimedOut
	case errors.Is(err, errTooManyRedirects):
		return domain.ErrTooManyRedirects
	}

	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		if certInvalid.Reason == x509.Expired {
			return domain.ErrCertDate
		}
		return domain.ErrCertInvalid
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return domain.ErrCertCommonName
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return domain.ErrCertAuthority
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.ErrNameNotResolved
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return domain.ErrConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return domain.ErrConnectionReset
	case errors.Is(err, syscall.ECONNABORTED):
		return domain.ErrConnectionAborted
	case errors.Is(err, syscall.ENOTCONN):
		return domain.ErrSocketNotConnected
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return domain.ErrAddressUnreachable
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return domain.ErrConnectionClosed
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrConnectionTimedOut
	}

	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return domain.ErrUnknownURLScheme
	}
	return domain.ErrFailed
}
