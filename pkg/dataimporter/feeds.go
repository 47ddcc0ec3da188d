package dataimporter

import (
	"errors"
	"fmt"

	"github.com/travigo/populate/pkg/config"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/identity"
	"github.com/travigo/populate/pkg/naptan"
	"github.com/travigo/populate/pkg/nptg"
	"github.com/travigo/populate/pkg/transxchange"
	"github.com/travigo/populate/pkg/travelinenoc"
)

var ErrUnknownFeed = errors.New("unknown feed")

// Definition returns the rule table for a feed. TNDS identifiers are minted
// through resolver.
func Definition(feed string, resolver *identity.Resolver) (*engine.Definition, error) {
	switch feed {
	case config.FeedNPTG:
		return nptg.Definition, nil
	case config.FeedNaPTAN:
		return naptan.Definition, nil
	case config.FeedNOC:
		return travelinenoc.Definition, nil
	case config.FeedTNDS:
		return transxchange.NewDefinition(resolver), nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownFeed, feed)
}
