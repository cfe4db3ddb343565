package security

var passwordParams = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// HashPassword encodes password as an argon2id PHC string.
func HashPassword(password string) (string, error) {
	return hashWithParams(password, passwordParams)
}

// VerifyPassword reports whether password matches an encoded hash. The cost
// parameters are read from the hash, so older hashes keep verifying after
// passwordParams changes.
func VerifyPassword(password, encoded string) (bool, error) {
	return verifyEncoded(password, encoded)
}
