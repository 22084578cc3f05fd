package svc

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/fogo-labs/fogo-faucet/chain"
	"github.com/fogo-labs/fogo-faucet/config"
	"github.com/fogo-labs/fogo-faucet/dao"
	"github.com/fogo-labs/fogo-faucet/policy"
)

// ServerCtx carries the wired collaborators every request handler and
// service function works against. Tests swap Dao and Gateway for fakes.
type ServerCtx struct {
	C       *config.Config
	Dao     dao.Store
	Gateway chain.Gateway
	Policy  policy.Policy

	// Cache backs read-only aggregate endpoints only; reservation and
	// finalization never consult it.
	Cache *gocache.Cache
}

func NewServiceContext(c *config.Config) (*ServerCtx, error) {
	p, err := policy.FromConfig(c.Faucet)
	if err != nil {
		return nil, err
	}

	db, err := dao.NewDB(c.Db)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	d := dao.NewDao(db, p, c.Faucet)
	if err := d.Migrate(); err != nil {
		return nil, errors.Wrap(err, "migrate database")
	}

	gw, err := chain.NewClient(c.Chain)
	if err != nil {
		return nil, errors.Wrap(err, "build chain client")
	}

	return &ServerCtx{
		C:       c,
		Dao:     d,
		Gateway: gw,
		Policy:  p,
		Cache:   gocache.New(c.Worker.StatsCacheTTL, time.Minute),
	}, nil
}
