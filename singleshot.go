package hpke

// Seal sets up a sender context, seals one message and closes the context.
func Seal(suite Suite, mode SenderMode, pkR *PublicKey, info, aad, plaintext []byte, opts ...Option) (enc, ciphertext []byte, err error) {
	enc, ctx, err := SetupSender(suite, mode, pkR, info, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer ctx.Close()

	ciphertext, err = ctx.Seal(aad, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return enc, ciphertext, nil
}

// Open sets up a receiver context, opens one message and closes the context.
func Open(suite Suite, mode ReceiverMode, skR *PrivateKey, enc, info, aad, ciphertext []byte, opts ...Option) ([]byte, error) {
	ctx, err := SetupReceiver(suite, mode, skR, enc, info, opts...)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	return ctx.Open(aad, ciphertext)
}

// SendExport sets up a sender context and exports one secret from it.
func SendExport(suite Suite, mode SenderMode, pkR *PublicKey, info, exporterContext []byte, length int, opts ...Option) (enc, secret []byte, err error) {
	enc, ctx, err := SetupSender(suite, mode, pkR, info, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer ctx.Close()

	secret, err = ctx.Export(exporterContext, length)
	if err != nil {
		return nil, nil, err
	}
	return enc, secret, nil
}

// ReceiveExport sets up a receiver context and exports one secret from it.
func ReceiveExport(suite Suite, mode ReceiverMode, skR *PrivateKey, enc, info, exporterContext []byte, length int, opts ...Option) ([]byte, error) {
	ctx, err := SetupReceiver(suite, mode, skR, enc, info, opts...)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	return ctx.Export(exporterContext, length)
}
