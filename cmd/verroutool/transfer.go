package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/transfer"
)

// wireChunk is transfer.Chunk's JSON-friendly shape, since aead.SealedData
// holds fixed-size byte arrays that encoding/json can't round-trip without
// help, and a QR/offline transfer medium wants a compact textual form
// anyway.
type wireChunk struct {
	Index      uint16 `json:"index"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

func toWireChunk(c transfer.Chunk) wireChunk {
	return wireChunk{
		Index:      c.Index,
		Nonce:      hex.EncodeToString(c.Sealed.Nonce[:]),
		Ciphertext: hex.EncodeToString(c.Sealed.Ciphertext),
		Tag:        hex.EncodeToString(c.Sealed.Tag[:]),
	}
}

func fromWireChunk(w wireChunk) (transfer.Chunk, error) {
	var c transfer.Chunk
	c.Index = w.Index

	nonce, err := hex.DecodeString(w.Nonce)
	if err != nil || len(nonce) != len(c.Sealed.Nonce) {
		return c, fmt.Errorf("chunk %d: bad nonce", w.Index)
	}
	copy(c.Sealed.Nonce[:], nonce)

	tag, err := hex.DecodeString(w.Tag)
	if err != nil || len(tag) != len(c.Sealed.Tag) {
		return c, fmt.Errorf("chunk %d: bad tag", w.Index)
	}
	copy(c.Sealed.Tag[:], tag)

	ct, err := hex.DecodeString(w.Ciphertext)
	if err != nil {
		return c, fmt.Errorf("chunk %d: bad ciphertext", w.Index)
	}
	c.Sealed.Ciphertext = ct

	return c, nil
}

func transferChunkCmd(app *appContext) *cobra.Command {
	var inPath, outPath, localPrivHex, remotePubHex string
	var maxChunk int

	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Encrypt a payload into indexed chunks for offline (QR-code) transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			localPriv, err := decodeKey32(localPrivHex)
			if err != nil {
				return fmt.Errorf("local private key: %w", err)
			}
			remotePub, err := decodeKey32(remotePubHex)
			if err != nil {
				return fmt.Errorf("remote public key: %w", err)
			}

			local := transfer.Keypair{PrivateKey: localPriv}
			key, err := transfer.DeriveTransferKey(local, remotePub)
			if err != nil {
				return fmt.Errorf("derive transfer key: %w", err)
			}
			defer key.Destroy()

			chunks, err := transfer.ChunkPayload(payload, key.Expose(), maxChunk)
			if err != nil {
				return fmt.Errorf("chunk payload: %w", err)
			}

			wire := make([]wireChunk, len(chunks))
			for i, c := range chunks {
				wire[i] = toWireChunk(c)
			}
			data, err := json.MarshalIndent(wire, "", "  ")
			if err != nil {
				return fmt.Errorf("encode chunks: %w", err)
			}

			if err := os.WriteFile(outPath, data, 0o600); err != nil {
				return fmt.Errorf("write chunks: %w", err)
			}

			app.metrics.TransferChunks.Add(float64(len(chunks)))
			printSuccess(fmt.Sprintf("wrote %d chunks to %s", len(chunks), outPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the payload to chunk")
	cmd.Flags().StringVar(&outPath, "out", "chunks.json", "path to write the JSON-encoded chunk list")
	cmd.Flags().StringVar(&localPrivHex, "local-private-key", "", "hex-encoded local X25519 transfer private key")
	cmd.Flags().StringVar(&remotePubHex, "remote-public-key", "", "hex-encoded remote X25519 transfer public key")
	cmd.Flags().IntVar(&maxChunk, "max-chunk-size", transfer.DefaultMaxChunkSize, "maximum plaintext bytes per chunk")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("local-private-key")
	cmd.MarkFlagRequired("remote-public-key")
	return cmd
}

func transferAssembleCmd(app *appContext) *cobra.Command {
	var inPath, outPath, localPrivHex, remotePubHex string

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Reassemble a chunk set produced by transfer chunk back into the original payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read chunks: %w", err)
			}
			var wire []wireChunk
			if err := json.Unmarshal(data, &wire); err != nil {
				return fmt.Errorf("parse chunks: %w", err)
			}

			chunks := make([]transfer.Chunk, len(wire))
			for i, w := range wire {
				c, err := fromWireChunk(w)
				if err != nil {
					return err
				}
				chunks[i] = c
			}

			localPriv, err := decodeKey32(localPrivHex)
			if err != nil {
				return fmt.Errorf("local private key: %w", err)
			}
			remotePub, err := decodeKey32(remotePubHex)
			if err != nil {
				return fmt.Errorf("remote public key: %w", err)
			}

			local := transfer.Keypair{PrivateKey: localPriv}
			key, err := transfer.DeriveTransferKey(local, remotePub)
			if err != nil {
				return fmt.Errorf("derive transfer key: %w", err)
			}
			defer key.Destroy()

			payload, err := transfer.AssembleChunks(chunks, key.Expose())
			if err != nil {
				return fmt.Errorf("assemble chunks: %w", err)
			}
			defer payload.Destroy()

			app.metrics.TransferAssembles.Inc()

			if outPath != "" {
				if err := os.WriteFile(outPath, payload.Expose(), 0o600); err != nil {
					return fmt.Errorf("write payload: %w", err)
				}
				printSuccess(fmt.Sprintf("wrote payload to %s", outPath))
				return nil
			}
			os.Stdout.Write(payload.Expose())
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "chunks.json", "path to the JSON-encoded chunk list")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the reassembled payload (default: stdout)")
	cmd.Flags().StringVar(&localPrivHex, "local-private-key", "", "hex-encoded local X25519 transfer private key")
	cmd.Flags().StringVar(&remotePubHex, "remote-public-key", "", "hex-encoded remote X25519 transfer public key")
	cmd.MarkFlagRequired("local-private-key")
	cmd.MarkFlagRequired("remote-public-key")
	return cmd
}

func decodeKey32(hexStr string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimSpace(hexStr))
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("expected 32 hex-encoded bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func transferKeypairCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Generate a fresh X25519 transfer keypair for one offline-transfer session",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := transfer.GenerateTransferKeypair()
			if err != nil {
				return fmt.Errorf("generate transfer keypair: %w", err)
			}
			fmt.Println("private key:", hex.EncodeToString(kp.PrivateKey[:]))
			fmt.Println("public key: ", hex.EncodeToString(kp.PublicKey[:]))
			return nil
		},
	}
	return cmd
}

func transferVerifyCmd(app *appContext) *cobra.Command {
	var localPubHex, remotePubHex string

	cmd := &cobra.Command{
		Use:   "verify-words",
		Short: "Derive the short word phrase both sides compare aloud to confirm a transfer wasn't intercepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			localPub, err := decodeKey32(localPubHex)
			if err != nil {
				return fmt.Errorf("local public key: %w", err)
			}
			remotePub, err := decodeKey32(remotePubHex)
			if err != nil {
				return fmt.Errorf("remote public key: %w", err)
			}

			words, err := transfer.VerificationWords(localPub, remotePub)
			if err != nil {
				return fmt.Errorf("derive verification words: %w", err)
			}
			fmt.Println(strings.Join(words, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&localPubHex, "local-public-key", "", "hex-encoded local X25519 transfer public key")
	cmd.Flags().StringVar(&remotePubHex, "remote-public-key", "", "hex-encoded remote X25519 transfer public key")
	cmd.MarkFlagRequired("local-public-key")
	cmd.MarkFlagRequired("remote-public-key")
	return cmd
}
