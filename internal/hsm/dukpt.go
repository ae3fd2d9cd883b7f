package hsm

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
	"github.com/rs/zerolog/log"
)

// IPEK returns the initial key of the device identified by ksn, served from
// the cache when possible.
func (h *HSM) IPEK(bdk, ksn []byte) ([]byte, error) {
	if len(bdk)*8 != dukpt.KeyBits {
		return nil, fmt.Errorf("%w: got %d bits", dukpt.ErrInvalidKeyLength, len(bdk)*8)
	}
	if len(ksn)*8 < dukpt.KSNBits {
		return nil, fmt.Errorf("%w: got %d bits", dukpt.ErrInvalidKsnLength, len(ksn)*8)
	}

	key := cacheKey(bdk, ksn)
	if ipek, ok := h.cache.get(key); ok {
		h.notify(true)

		return ipek, nil
	}
	h.notify(false)

	v, err := h.deriver.IPEK(bitvec.FromBytes(bdk), bitvec.FromBytes(ksn))
	if err != nil {
		return nil, err
	}
	ipek := v.Bytes()
	h.cache.add(key, ipek)

	return ipek, nil
}

// TransactionKey derives the usage key for the transaction identified by ksn.
func (h *HSM) TransactionKey(bdk, ksn []byte, usage dukpt.KeyUsage) ([]byte, error) {
	ipek, err := h.IPEK(bdk, ksn)
	if err != nil {
		return nil, err
	}

	v, err := h.deriver.KeyFromIPEK(bitvec.FromBytes(ipek), bitvec.FromBytes(ksn), usage)
	if err != nil {
		return nil, err
	}

	return v.Bytes(), nil
}

// DataKey derives the ANSI X9.24-2009 data encryption key for ksn.
func (h *HSM) DataKey(bdk, ksn []byte) ([]byte, error) {
	ipek, err := h.IPEK(bdk, ksn)
	if err != nil {
		return nil, err
	}

	v, err := h.deriver.DataKeyVariantFromIPEK(bitvec.FromBytes(ipek), bitvec.FromBytes(ksn))
	if err != nil {
		return nil, err
	}

	return v.Bytes(), nil
}

// PurgeCache drops every cached IPEK.
func (h *HSM) PurgeCache() {
	h.cache.purge()
	log.Info().Str("event", "ipek_cache_purged").Msg("IPEK cache purged")
}

// CacheStats returns the IPEK cache counters.
func (h *HSM) CacheStats() CacheStats {
	return h.cache.stats()
}

func (h *HSM) notify(hit bool) {
	if h.observe != nil {
		h.observe(hit)
	}
}
