package adapter

import "strings"

// pickZone selects the zone managing fqdn from a provider's zone list: the
// longest zone name that fqdn equals or falls under. Empty when none match.
func pickZone(fqdn string, zoneNames []string) string {
	name := strings.TrimSuffix(fqdn, ".")

	var best string
	for _, zone := range zoneNames {
		zone = strings.TrimSuffix(zone, ".")
		if zone == "" {
			continue
		}
		if name != zone && !strings.HasSuffix(name, "."+zone) {
			continue
		}
		if len(zone) > len(best) {
			best = zone
		}
	}
	return best
}

// candidateZones lists every ancestor domain of fqdn, longest first, used to
// probe the zone cache before hitting the provider API.
func candidateZones(fqdn string) []string {
	name := strings.TrimSuffix(fqdn, ".")
	labels := strings.Split(name, ".")

	var candidates []string
	for i := 0; i < len(labels)-1; i++ {
		candidates = append(candidates, strings.Join(labels[i:], "."))
	}
	return candidates
}

// relativeName strips the zone suffix from an fqdn, yielding the record name
// form zone-scoped APIs expect ("_acme-challenge.a" for zone "example.com").
func relativeName(fqdn, zone string) string {
	name := strings.TrimSuffix(fqdn, ".")
	if name == zone {
		return "@"
	}
	return strings.TrimSuffix(name, "."+zone)
}
