package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/debtfolio/src/database"
	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/remotestore"
)

const referenceCacheKey = "reference_lists"

// DefaultReferenceLists are the seed catalogs the store itself provisions a
// fresh spreadsheet with. They are the fallback of last resort when neither
// the remote store nor a local snapshot is available.
func DefaultReferenceLists() *models.ReferenceLists {
	return &models.ReferenceLists{
		Entities: []string{
			"Banco Santander", "BBVA", "CaixaBank", "Bankinter", "Sabadell",
		},
		ProductTypes: []string{
			"Préstamo Personal", "Tarjeta de Crédito", "Hipoteca",
			"Línea de Crédito", "Crédito al Consumo",
		},
	}
}

type referenceServiceImpl struct {
	client remotestore.Client
	cache  *cache.Cache
	ttl    time.Duration
}

// NewReferenceService builds the reference catalog service on top of the
// remote client and a shared in-process cache.
func NewReferenceService(client remotestore.Client, c *cache.Cache, ttl time.Duration) ReferenceService {
	return &referenceServiceImpl{
		client: client,
		cache:  c,
		ttl:    ttl,
	}
}

func (s *referenceServiceImpl) Lists(ctx context.Context) (*models.ReferenceLists, error) {
	if v, found := s.cache.Get(referenceCacheKey); found {
		return v.(*models.ReferenceLists), nil
	}
	return s.Refresh(ctx)
}

func (s *referenceServiceImpl) Refresh(ctx context.Context) (*models.ReferenceLists, error) {
	refs, err := s.client.FetchReferenceLists(ctx)
	if err == nil {
		s.cache.Set(referenceCacheKey, refs, s.ttl)
		if database.DB != nil {
			if serr := database.SaveReferenceSnapshot(refs); serr != nil && logger.L != nil {
				logger.L.Warn("Failed to persist reference list snapshot", "error", serr)
			}
		}
		return refs, nil
	}

	if logger.L != nil {
		logger.L.Warn("Reference list fetch failed, degrading to fallback catalog", "error", err)
	}

	if database.DB != nil {
		snapshot, serr := database.LoadReferenceSnapshot()
		if serr != nil {
			if logger.L != nil {
				logger.L.Error("Failed to load reference list snapshot", "error", serr)
			}
		} else if snapshot != nil {
			s.cache.Set(referenceCacheKey, snapshot, s.ttl)
			return snapshot, nil
		}
	}

	defaults := DefaultReferenceLists()
	s.cache.Set(referenceCacheKey, defaults, s.ttl)
	return defaults, nil
}
