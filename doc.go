// Package hpke implements Hybrid Public Key Encryption as specified in
// RFC 9180.
//
// A sender encrypts a stream of messages to a receiver's public key without
// a prior handshake. Both sides can also derive exported secrets bound to
// the same key schedule.
//
// # Algorithms
//
//   - KEM: DHKEM over P-256, P-384, P-521, secp256k1, X25519 and X448.
//   - KDF: HKDF-SHA256, HKDF-SHA384 and HKDF-SHA512.
//   - AEAD: AES-128-GCM, AES-256-GCM, ChaCha20-Poly1305 and export-only.
//
// # Modes
//
// SenderMode and ReceiverMode select one of base, psk, auth and auth_psk.
// The constructors reject missing material, so a mode value is always
// complete.
//
// Basic usage:
//
//	suite := hpke.MustSuite(hpke.KEMX25519HKDFSHA256, hpke.KDFHKDFSHA256, hpke.AEADAES128GCM)
//
//	skR, err := suite.KEM.GenerateKeyPair(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	enc, sender, err := hpke.SetupSender(suite, hpke.SenderBase(), skR.PublicKey(), info)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sender.Close()
//
//	ct, err := sender.Seal(aad, []byte("hello"))
//
//	receiver, err := hpke.SetupReceiver(suite, hpke.ReceiverBase(), skR, enc, info)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer receiver.Close()
//
//	pt, err := receiver.Open(aad, ct)
//
// # Security Notes
//
//   - Contexts are not safe for concurrent use.
//   - Messages must be opened in the order they were sealed.
//   - A context refuses to seal or open once its sequence number is
//     exhausted; set up a new one.
//   - Close wipes key material. PrivateKey.Zero does the same for keys.
package hpke
