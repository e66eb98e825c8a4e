package factura

// PickInvoice chooses the invoice to download among lookup candidates.
// A record whose NumeroFactura equals preferred wins; otherwise the record
// with the numerically greatest IDFactura is returned. Records with a
// non-numeric ID never displace the current pick.
func PickInvoice(records []DetailRecord, preferred string) (DetailRecord, bool) {
	if len(records) == 0 {
		return DetailRecord{}, false
	}

	if preferred != "" {
		for _, r := range records {
			if r.NumeroFactura == preferred {
				return r, true
			}
		}
	}

	best := records[0]
	bestID, bestOK := best.NumericID()
	for _, r := range records[1:] {
		id, ok := r.NumericID()
		if !ok || !bestOK {
			continue
		}
		if id > bestID {
			best, bestID = r, id
		}
	}
	return best, true
}
