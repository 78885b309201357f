package crypto

import "encoding/json"

// EncryptJSON marshals v to UTF-8 JSON and seals it.
func EncryptJSON(key []byte, v any) (ciphertext, nonce []byte, err error) {
	pt, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	defer Zero(pt)
	return Encrypt(key, pt)
}

// DecryptJSON opens ciphertext and unmarshals the plaintext into out.
func DecryptJSON(key, ciphertext, nonce []byte, out any) error {
	pt, err := Decrypt(key, ciphertext, nonce)
	if err != nil {
		return err
	}
	defer Zero(pt)
	return json.Unmarshal(pt, out)
}
