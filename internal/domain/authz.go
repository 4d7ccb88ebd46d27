package domain

// IsOwningCustomer reports whether email identifies the customer who booked
// the reservation. Requires the Customer relation to be loaded.
func IsOwningCustomer(r *Reservation, email string) bool {
	if r == nil || r.Customer == nil || email == "" {
		return false
	}
	return r.Customer.Email == email
}

// IsServiceProvider reports whether email identifies the provider of the
// reservation's service. Requires the Service and its Provider relation to be
// loaded. Matching is exact equality.
func IsServiceProvider(r *Reservation, email string) bool {
	if r == nil || r.Service == nil || r.Service.Provider == nil || email == "" {
		return false
	}
	return r.Service.Provider.Email == email
}
